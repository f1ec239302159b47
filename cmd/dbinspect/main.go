// Command dbinspect dumps the contents of a ReadAlong store for debugging.
package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/readalongapp/readalong-server/internal/domain"
)

func main() {
	dbPath := os.Getenv("STORE_PATH")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to resolve home directory: %v", err)
		}
		dbPath = filepath.Join(home, "ReadAlong", "store", "db")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Store Inspection ===")
	fmt.Println()

	positions := 0
	jobs := map[string]int{}

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("pos:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := string(item.Key())

			// pos:<job_id>:<media_id>
			parts := strings.SplitN(key, ":", 3)
			if len(parts) == 3 {
				jobs[parts[1]]++
			}

			err := item.Value(func(val []byte) error {
				var pos domain.PlaybackPosition
				if err := json.Unmarshal(val, &pos); err != nil {
					return err
				}
				positions++
				fmt.Printf("  %s  type=%s base=%s position=%.2f\n",
					key, pos.MediaType, pos.BaseID, pos.Position)
				return nil
			})
			if err != nil {
				fmt.Printf("  %s  <unreadable: %v>\n", key, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to scan positions: %v", err)
	}

	fmt.Println()
	fmt.Printf("Playback positions: %d across %d jobs\n", positions, len(jobs))
	for jobID, n := range jobs {
		fmt.Printf("  job %s: %d\n", jobID, n)
	}
	fmt.Println()

	settings := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("settings:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := string(item.Key())

			err := item.Value(func(val []byte) error {
				var s domain.ReaderSettings
				if err := json.Unmarshal(val, &s); err != nil {
					return err
				}
				settings++
				fmt.Printf("  %s  subtitles=%t orig_audio=%t trans_audio=%t font=%.2f updated=%s\n",
					key, s.SubtitlesVisible, s.OriginalAudioEnabled,
					s.TranslationAudioEnabled, s.FontScale,
					s.UpdatedAt.Format("2006-01-02 15:04:05"))
				return nil
			})
			if err != nil {
				fmt.Printf("  %s  <unreadable: %v>\n", key, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to scan settings: %v", err)
	}

	fmt.Println()
	fmt.Printf("Settings profiles: %d\n", settings)
}
