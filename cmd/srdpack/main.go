// Command srdpack compiles JSON content files into a SQLite content pack
// that mksheets and sheetsd can layer over the built-in compendium.
//
// Each argument is a JSON file holding an array of content blocks, the
// same shape the built-in compendium uses.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgriffen/mksheets/internal/content"
)

func main() {
	os.Exit(run())
}

func run() int {
	var out string
	flag.StringVar(&out, "o", "content.pack", "output pack file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: srdpack [-o pack.db] content.json...")
		return 2
	}

	var blocks []content.Block
	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Error("failed to read content file", "file", path, "error", err)
			return 1
		}
		var fileBlocks []content.Block
		if err := json.Unmarshal(data, &fileBlocks); err != nil {
			log.Error("invalid content file", "file", path, "error", err)
			return 1
		}
		blocks = append(blocks, fileBlocks...)
	}

	if err := content.WritePack(out, blocks); err != nil {
		log.Error("failed to write pack", "path", out, "error", err)
		return 1
	}
	log.Info("pack written", "path", out, "blocks", len(blocks))
	return 0
}
