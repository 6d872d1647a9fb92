package video

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/url"
	"strconv"
	"time"
)

// Token is a signed, time-limited playback grant for one video. There is
// no revocation: a token stays valid until ExpiresAt.
type Token struct {
	VideoID   string    `json:"-"`
	StreamURL string    `json:"streamUrl"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Issuer computes CDN playback tokens. It performs no authentication; its
// callers must.
type Issuer struct {
	libraryID string
	apiKey    string
	cdnHost   string
	window    time.Duration
	now       func() time.Time
}

func NewIssuer(libraryID, apiKey, cdnHost string, window time.Duration, now func() time.Time) *Issuer {
	if now == nil {
		now = time.Now
	}
	return &Issuer{
		libraryID: libraryID,
		apiKey:    apiKey,
		cdnHost:   cdnHost,
		window:    window,
		now:       now,
	}
}

// Issue signs videoID for the issuer's window starting now.
func (i *Issuer) Issue(videoID string) Token {
	expires := i.now().Add(i.window).Unix()
	token := i.digest(videoID, expires)

	q := make(url.Values)
	q.Set("token", token)
	q.Set("expires", strconv.FormatInt(expires, 10))

	u := url.URL{
		Scheme:   "https",
		Host:     i.cdnHost,
		Path:     "/" + videoID + "/playlist.m3u8",
		RawQuery: q.Encode(),
	}

	return Token{
		VideoID:   videoID,
		StreamURL: u.String(),
		Token:     token,
		ExpiresAt: time.Unix(expires, 0).UTC(),
	}
}

// Verify performs the check the CDN applies to a playback request.
func (i *Issuer) Verify(videoID, token string, expires int64, now time.Time) bool {
	if now.Unix() > expires {
		return false
	}
	want := i.digest(videoID, expires)
	return subtle.ConstantTimeCompare([]byte(want), []byte(token)) == 1
}

// digest is hex(sha256(libraryID ‖ apiKey ‖ expires ‖ videoID)) with
// expires in decimal seconds and no separators.
func (i *Issuer) digest(videoID string, expires int64) string {
	h := sha256.New()
	h.Write([]byte(i.libraryID))
	h.Write([]byte(i.apiKey))
	h.Write([]byte(strconv.FormatInt(expires, 10)))
	h.Write([]byte(videoID))
	return hex.EncodeToString(h.Sum(nil))
}
