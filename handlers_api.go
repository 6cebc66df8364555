package main

import (
	"encoding/json"
	"log"
	"net/http"
)

// ApiListHandler writes the names of every page as a JSON array.
func ApiListHandler(pl PageLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pages, err := pl.FindAll()
		if err != nil {
			log.Printf("Failed to list pages: %v\n", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		res := make([]string, len(pages))
		for i := range pages {
			res[i] = pages[i].Name()
		}

		b, err := json.Marshal(res)
		if err != nil {
			log.Printf("Failed to marshal list contents: %v\n", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(b)
	}
}
