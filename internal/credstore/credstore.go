// Package credstore persists the Strava OAuth token pair together with the
// application identity. The default implementation is a plain key=value file
// compatible with dotenv tooling.
package credstore

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/straviz/straviz-server/internal/model"
)

// Store abstracts credential persistence so the syncer never touches ambient
// global state. Implementations must replace the token pair atomically.
type Store interface {
	Load(ctx context.Context) (*model.Credentials, error)
	Save(ctx context.Context, creds *model.Credentials) error
}

// Keys written to the credential file. The file is rewritten wholesale on
// every successful refresh.
const (
	keyClientID     = "STRAVA_CLIENT_ID"
	keyClientSecret = "STRAVA_CLIENT_SECRET"
	keyRefreshToken = "STRAVA_REFRESH_TOKEN"
	keyAccessToken  = "STRAVA_ACCESS_TOKEN"
)

// FileStore reads and writes credentials as key=value lines in a local file.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore backed by the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load parses the credential file. A missing file yields empty credentials,
// not an error; callers decide whether an empty token pair is fatal.
func (s *FileStore) Load(ctx context.Context) (*model.Credentials, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.Credentials{}, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	creds := &model.Credentials{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		switch strings.TrimSpace(key) {
		case keyClientID:
			creds.ClientID = value
		case keyClientSecret:
			creds.ClientSecret = value
		case keyRefreshToken:
			creds.RefreshToken = value
		case keyAccessToken:
			creds.AccessToken = value
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return creds, nil
}

// Save rewrites the whole file via a temp file and rename so the access and
// refresh tokens are never observable half-replaced.
func (s *FileStore) Save(ctx context.Context, creds *model.Credentials) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s=%s\n", keyClientID, creds.ClientID)
	fmt.Fprintf(&b, "%s=%s\n", keyClientSecret, creds.ClientSecret)
	fmt.Fprintf(&b, "%s=%s\n", keyRefreshToken, creds.RefreshToken)
	fmt.Fprintf(&b, "%s=%s\n", keyAccessToken, creds.AccessToken)

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(b.String()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}
