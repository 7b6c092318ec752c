// Mockupstream is a flaky OData-style telemetry API used for manually
// exercising the gateway's resilience features.
//
// Usage:
//
//	go run ./scripts/mockupstream -port 9081 -records 120 -fail-rate 0.3
//
// It serves /api/sensors with $skip/$top pagination and a totalRecords
// count, randomly failing the configured fraction of requests so circuit
// breakers, retries, and partial pagination can be observed.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

func main() {
	port := flag.Int("port", 9081, "listen port")
	records := flag.Int("records", 120, "total records in the dataset")
	failRate := flag.Float64("fail-rate", 0.0, "fraction of requests answered with 500")
	latency := flag.Duration("latency", 0, "artificial response delay")
	flag.Parse()

	dataset := make([]map[string]any, *records)
	for i := range dataset {
		dataset[i] = map[string]any{
			"sensor_id":     fmt.Sprintf("s%d", i+1),
			"location":      fmt.Sprintf("hall-%c", 'a'+i%4),
			"temperature_c": 18.0 + rand.Float64()*10,
			"humidity_pct":  35.0 + rand.Float64()*25,
			"recorded_at":   time.Now().UTC().Format(time.RFC3339),
		}
	}

	http.HandleFunc("/api/sensors", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s", r.Method, r.URL.String())

		if *latency > 0 {
			time.Sleep(*latency)
		}

		if rand.Float64() < *failRate {
			log.Printf("injected failure")
			http.Error(w, "injected upstream failure", http.StatusInternalServerError)
			return
		}

		skip, _ := strconv.Atoi(r.URL.Query().Get("$skip"))
		top, _ := strconv.Atoi(r.URL.Query().Get("$top"))
		if top <= 0 {
			top = len(dataset)
		}
		if skip < 0 {
			skip = 0
		}

		end := skip + top
		if skip > len(dataset) {
			skip = len(dataset)
		}
		if end > len(dataset) {
			end = len(dataset)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"value":        dataset[skip:end],
			"totalRecords": len(dataset),
		})
	})

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("mock upstream listening on %s (%d records, fail rate %.2f)", addr, *records, *failRate)
	log.Fatal(http.ListenAndServe(addr, nil))
}
