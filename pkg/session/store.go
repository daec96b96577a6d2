package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"igunfollowers/pkg/logger"
)

const filePrefix = "session-"

var (
	// ErrNotFound is returned by Load when no session file exists
	ErrNotFound = errors.New("session not found")

	// ErrInvalidUsername is returned for names that cannot be used as a file name
	ErrInvalidUsername = errors.New("invalid username for session file")
)

// maxUsernameLength is the longest username Instagram accepts
const maxUsernameLength = 30

// ValidUsername reports whether username follows Instagram's rules: 1 to 30
// ASCII letters, digits, periods or underscores. Only such names are used
// in session file names.
func ValidUsername(username string) bool {
	if len(username) == 0 || len(username) > maxUsernameLength {
		return false
	}
	for i := 0; i < len(username); i++ {
		switch ch := username[i]; {
		case 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z', '0' <= ch && ch <= '9':
		case ch == '.' || ch == '_':
		default:
			return false
		}
	}
	return true
}

// Info describes a stored session file without decoding it
type Info struct {
	Username string
	Path     string
	SavedAt  time.Time
}

// Store keeps one session file per username in a directory
type Store struct {
	dir    string
	codec  Codec
	logger logger.Logger
}

// NewStore creates a store rooted at dir. A nil codec means JSONCodec.
func NewStore(dir string, codec Codec, log logger.Logger) *Store {
	if codec == nil {
		codec = JSONCodec{}
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Store{
		dir:    dir,
		codec:  codec,
		logger: log.WithField("component", "session_store"),
	}
}

// Dir returns the directory sessions are stored in
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the session file path for username
func (s *Store) Path(username string) string {
	return filepath.Join(s.dir, filePrefix+username)
}

// Exists checks if a session file exists for username
func (s *Store) Exists(username string) bool {
	if !ValidUsername(username) {
		return false
	}
	info, err := os.Stat(s.Path(username))
	return err == nil && info.Mode().IsRegular()
}

// Load reads and decodes the session for username
func (s *Store) Load(username string) (*Session, error) {
	if !ValidUsername(username) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	}

	path := s.Path(username)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	sess, err := s.codec.Decode(data)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(sess.Username, username) {
		return nil, fmt.Errorf("session file belongs to @%s, not @%s", sess.Username, username)
	}

	s.logger.DebugWithFields("Session loaded", map[string]interface{}{
		"username": username,
		"path":     path,
	})

	return sess, nil
}

// Save writes the session atomically with owner-only permissions
func (s *Store) Save(sess *Session) error {
	if sess == nil || !ValidUsername(sess.Username) {
		return ErrInvalidUsername
	}

	data, err := s.codec.Encode(sess)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create sessions directory: %w", err)
	}

	path := s.Path(sess.Username)
	tmp, err := os.CreateTemp(s.dir, "."+filePrefix+sess.Username+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary session file: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write session file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync session file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close session file: %w", err)
	}

	if err := os.Chmod(tempPath, 0600); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to set session file permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace session file: %w", err)
	}

	s.logger.DebugWithFields("Session saved", map[string]interface{}{
		"username": sess.Username,
		"path":     path,
	})

	return nil
}

// Delete removes the session file for username. A missing file is not an error.
func (s *Store) Delete(username string) error {
	if !ValidUsername(username) {
		return fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	}

	if err := os.Remove(s.Path(username)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.logger.DebugWithFields("Session deleted", map[string]interface{}{
		"username": username,
	})
	return nil
}

// List returns every stored session sorted by username.
// A missing directory yields an empty list.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	infos := make([]Info, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || !strings.HasPrefix(name, filePrefix) {
			continue
		}
		username := strings.TrimPrefix(name, filePrefix)
		if !ValidUsername(username) {
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			continue
		}

		infos = append(infos, Info{
			Username: username,
			Path:     filepath.Join(s.dir, name),
			SavedAt:  fi.ModTime(),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Username < infos[j].Username
	})

	return infos, nil
}
