package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"

	"sentimentd/internal/platform/config"
	str "sentimentd/internal/platform/strings"
	classifymod "sentimentd/internal/services/api/classify/module"
	"sentimentd/internal/services/inspect"
)

func main() {
	// defaults come from CORE_CLASSIFY_* so the check matches what the api would load
	opt, err := classifymod.FromConfig(config.New())
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var (
		vocabPath = flag.String("vocab", opt.VocabPath, "vocabulary file (.json, .yaml)")
		modelPath = flag.String("model", opt.Engine.Path, "linear model artifact (.json, .yaml)")
		labels    = flag.String("labels", strings.Join(opt.Labels, ","), "comma separated labels in output order")
		seqLen    = flag.Int("sequence-length", opt.Engine.Width, "configured sequence length, 0 to take the model's")
		threshold = flag.Float64("threshold", opt.Threshold, "binary decision threshold")
	)
	flag.Parse()

	if *vocabPath == "" || *modelPath == "" {
		log.Fatal("-vocab and -model are required")
	}

	rep := inspect.Run(inspect.Input{
		VocabPath:      *vocabPath,
		ModelPath:      *modelPath,
		Labels:         str.TrimAll(strings.Split(*labels, ",")),
		SequenceLength: *seqLen,
		Threshold:      *threshold,
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		log.Fatalf("encode: %v", err)
	}
	if !rep.OK {
		os.Exit(1)
	}
}
