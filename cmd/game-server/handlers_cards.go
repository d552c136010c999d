package main

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ASAPmarius/WebBackend/internal/assets"
	"github.com/ASAPmarius/WebBackend/internal/deck"
	"github.com/ASAPmarius/WebBackend/internal/store"
)

// cardPayload pairs a card's metadata with its rendered image.
type cardPayload struct {
	ID      int    `json:"id"`
	Suit    string `json:"suit"`
	Rank    string `json:"rank"`
	Value   int    `json:"value"`
	Picture string `json:"picture"`
}

func cardsHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assetsList, err := st.ListCardAssets(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("load card assets")
			writeHTTPError(w, http.StatusInternalServerError, "Failed to load card resources")
			return
		}
		cards := make([]cardPayload, 0, len(assetsList))
		for _, a := range assetsList {
			meta := deck.ByID(a.ID)
			cards = append(cards, cardPayload{
				ID:      a.ID,
				Suit:    meta.Suit,
				Rank:    meta.Rank,
				Value:   meta.Value,
				Picture: assets.DataURL(a.Picture, "image/png"),
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"cards": cards})
	}
}
