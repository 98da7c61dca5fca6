// Command mycoctl exercises a running inference server from the terminal:
// readiness checks, single predictions from a JSON file, and batch
// predictions from a JSON array file.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"mycoscan/internal/client"
)

func main() {
	addr := flag.String("addr", "http://localhost:8000", "inference server base URL")
	input := flag.String("input", "", "JSON file: one specimen object, or an array for -batch")
	batch := flag.Bool("batch", false, "treat input as an ordered array of specimens")
	health := flag.Bool("health", false, "check server readiness and exit")
	timeout := flag.Duration("timeout", 10*time.Second, "request timeout")
	flag.Parse()

	c := client.New(*addr, *timeout)

	if *health {
		h, err := c.Health()
		if err != nil {
			log.Fatal().Err(err).Msg("health check failed")
		}
		fmt.Printf("status=%s model_loaded=%v\n", h.Status, h.ModelLoaded)
		return
	}

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*input)
	if err != nil {
		log.Fatal().Err(err).Str("path", *input).Msg("failed to read input")
	}

	if *batch {
		var specimens []map[string]any
		if err := json.Unmarshal(data, &specimens); err != nil {
			log.Fatal().Err(err).Msg("input is not a JSON array of specimens")
		}
		resp, err := c.BatchPredict(specimens)
		if err != nil {
			log.Fatal().Err(err).Msg("batch prediction failed")
		}
		printJSON(resp)
		return
	}

	var specimen map[string]any
	if err := json.Unmarshal(data, &specimen); err != nil {
		log.Fatal().Err(err).Msg("input is not a JSON specimen object")
	}
	resp, err := c.Predict(specimen)
	if err != nil {
		log.Fatal().Err(err).Msg("prediction failed")
	}
	printJSON(resp)
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to encode output")
	}
	fmt.Println(string(out))
}
