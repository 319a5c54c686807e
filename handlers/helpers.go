package handlers

import "os"

// baseAppURL is where mail links point; the frontend origin.
func baseAppURL() string {
	if url := os.Getenv("APP_BASE_URL"); url != "" {
		return url
	}
	return "http://localhost:3000"
}
