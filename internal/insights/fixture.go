// internal/insights/fixture.go
package insights

import (
	"fmt"
	"os"
	"path/filepath"

	"hms-analytics/internal/common/errors"
	"hms-analytics/internal/models"

	"github.com/goccy/go-json"
)

// WriteFixture validates collection and replaces the file at path atomically, so readers
// see either the old or the new fixture and never a partial one.
func WriteFixture(path string, collection []models.Insight) error {
	if err := Validate(collection); err != nil {
		return err
	}

	body, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		return errors.NewFixtureWriteFailedError(fmt.Errorf("encode: %w", err))
	}
	body = append(body, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewFixtureWriteFailedError(err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.NewFixtureWriteFailedError(err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		cleanup()
		return errors.NewFixtureWriteFailedError(err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return errors.NewFixtureWriteFailedError(err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.NewFixtureWriteFailedError(err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return errors.NewFixtureWriteFailedError(err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return errors.NewFixtureWriteFailedError(err)
	}
	return nil
}
