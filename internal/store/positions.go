package store

import (
	"encoding/json/v2"

	"github.com/dgraph-io/badger/v4"

	"github.com/readalongapp/readalong-server/internal/domain"
)

// SavePosition persists one playback position, write-behind from the
// in-memory position map. Last write wins.
func (s *Store) SavePosition(jobID string, pos domain.PlaybackPosition) error {
	return s.setJSON(positionKey(jobID, pos.MediaID), pos)
}

// GetPosition loads one playback position. Not-found is returned as a
// domain error; callers usually treat it as position zero.
func (s *Store) GetPosition(jobID, mediaID string) (*domain.PlaybackPosition, error) {
	var pos domain.PlaybackPosition
	if err := s.getJSON(positionKey(jobID, mediaID), &pos); err != nil {
		return nil, err
	}
	return &pos, nil
}

// ListPositions loads every persisted position for a job, used to seed
// the in-memory map when a session reopens the job.
func (s *Store) ListPositions(jobID string) ([]domain.PlaybackPosition, error) {
	prefix := []byte(positionsPrefix + jobID + ":")

	var positions []domain.PlaybackPosition
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			var pos domain.PlaybackPosition
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &pos)
			})
			if err != nil {
				return err
			}
			positions = append(positions, pos)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return positions, nil
}

// DropJobPositions removes every persisted position for a job.
func (s *Store) DropJobPositions(jobID string) error {
	return s.dropPrefix([]byte(positionsPrefix + jobID + ":"))
}
