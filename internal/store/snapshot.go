package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pathakanu/medMemo/internal/model"
)

// readSnapshot loads the {id: medication} document at path.
func readSnapshot(path string) ([]model.Medication, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrPersistence, path, err)
	}

	var snapshot map[string]model.Medication
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrPersistence, path, err)
	}

	meds := make([]model.Medication, 0, len(snapshot))
	for id, med := range snapshot {
		// The key is the id; an embedded id that disagrees is ignored.
		med.ID = id
		if med.Status == "" {
			med.Status = model.StatusPending
		}
		if !med.Status.Valid() {
			return nil, fmt.Errorf("%w: decode %s: record %s has unknown status %q", ErrPersistence, path, id, med.Status)
		}
		meds = append(meds, med)
	}
	return meds, nil
}

// writeSnapshot replaces the file at path via a temp file and rename so a
// crash never leaves a truncated document behind.
func writeSnapshot(path string, snapshot map[string]model.Medication) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrPersistence, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file in %s: %v", ErrPersistence, dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %v", ErrPersistence, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: sync %s: %v", ErrPersistence, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %v", ErrPersistence, tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: rename to %s: %v", ErrPersistence, path, err)
	}
	return nil
}
