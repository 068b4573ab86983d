package rooms

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound    = errors.New("meeting not found")
	ErrBadPassword = errors.New("incorrect password")
)

// Meta is the provisioning record for a created room: the meeting code and
// password gate entry, but live session state lives in the realtime registry.
type Meta struct {
	RoomID       string
	MeetingCode  string
	Title        string
	PasswordHash []byte
	// Password keeps the plaintext so the host can read it back from room
	// info; it is never returned to anyone else.
	Password   string
	HostUserID string
	HostName   string
	CreatedAt  time.Time
}

// Directory is the in-memory index of provisioned rooms, keyed by meeting
// code with a reverse map from room id.
type Directory struct {
	mu       sync.RWMutex
	byCode   map[string]*Meta
	codeByID map[string]string
}

// NewDirectory creates an empty room directory.
func NewDirectory() *Directory {
	return &Directory{
		byCode:   make(map[string]*Meta),
		codeByID: make(map[string]string),
	}
}

// Create provisions a room: short room id, human-readable meeting code like
// "abc-defg-hij" and a 6-digit password. Returns the record including the
// plaintext password for the creator.
func (d *Directory) Create(title, hostUserID, hostName string) (*Meta, error) {
	password := generatePassword()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	code := generateMeetingCode()
	for d.byCode[code] != nil {
		code = generateMeetingCode()
	}

	roomID := genRoomID()
	for d.codeByID[roomID] != "" {
		roomID = genRoomID()
	}

	m := &Meta{
		RoomID:       roomID,
		MeetingCode:  code,
		Title:        title,
		PasswordHash: hash,
		Password:     password,
		HostUserID:   hostUserID,
		HostName:     hostName,
		CreatedAt:    time.Now(),
	}
	d.byCode[code] = m
	d.codeByID[m.RoomID] = code
	return m, nil
}

// ValidateJoin checks a meeting code and password pair.
func (d *Directory) ValidateJoin(code, password string) (*Meta, error) {
	code = strings.ToLower(strings.TrimSpace(code))

	d.mu.RLock()
	m := d.byCode[code]
	d.mu.RUnlock()

	if m == nil {
		return nil, ErrNotFound
	}
	if err := bcrypt.CompareHashAndPassword(m.PasswordHash, []byte(password)); err != nil {
		return nil, ErrBadPassword
	}
	return m, nil
}

// ByRoomID looks a provisioned room up by its room id.
func (d *Directory) ByRoomID(roomID string) (*Meta, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	code, ok := d.codeByID[roomID]
	if !ok {
		return nil, false
	}
	m, ok := d.byCode[code]
	return m, ok
}

// TitleFor resolves the provisioned title for a room id; used by the
// realtime registry when a room is created lazily on first join.
func (d *Directory) TitleFor(roomID string) (string, bool) {
	m, ok := d.ByRoomID(roomID)
	if !ok {
		return "", false
	}
	return m.Title, true
}

// genRoomID produces the short room id. Ids are only 8 characters, so a
// collision, however unlikely, is retried like meeting codes. Variable for
// tests.
var genRoomID = func() string {
	return uuid.New().String()[:8]
}

const codeAlphabet = "abcdefghijklmnopqrstuvwxyz"

// generateMeetingCode returns a human-readable code like "abc-defg-hij".
func generateMeetingCode() string {
	part := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
		}
		return string(b)
	}
	return part(3) + "-" + part(4) + "-" + part(3)
}

// generatePassword returns a 6-digit numeric password.
func generatePassword() string {
	const digits = "0123456789"
	b := make([]byte, 6)
	for i := range b {
		b[i] = digits[rand.Intn(len(digits))]
	}
	return string(b)
}
