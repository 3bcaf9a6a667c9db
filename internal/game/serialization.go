package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

const stateVersion = 1

// StateChecksum identifies a table state independent of timestamps and ids. Two sessions
// replaying the same actions must arrive at the same hash.
type StateChecksum struct {
	Hash    string
	Version int
}

// Checksum hashes the canonical rendering of the state.
func (s *TableState) Checksum() (*StateChecksum, error) {
	hash := sha256.New()
	if _, err := hash.Write([]byte(s.canonical())); err != nil {
		return nil, fmt.Errorf("failed to compute hash: %w", err)
	}
	return &StateChecksum{
		Hash:    hex.EncodeToString(hash.Sum(nil)),
		Version: stateVersion,
	}, nil
}

// VerifyChecksum reports whether the state still hashes to expected.
func (s *TableState) VerifyChecksum(expected *StateChecksum) (bool, error) {
	computed, err := s.Checksum()
	if err != nil {
		return false, fmt.Errorf("failed to compute checksum: %w", err)
	}
	return computed.Hash == expected.Hash, nil
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func writePlayer(buf *bytes.Buffer, tag string, p PlayerState) {
	fmt.Fprintf(buf, "%s:%s|%s|%s|%s|%d|%d|%d|%d|%d\n",
		tag, p.Name, p.Position, p.BidStatus, p.Game, p.Score, p.TournamentScore, p.Played, p.Won, p.Lost)
	// hands keep their sort order, stitches are a pile and also keep insertion order
	fmt.Fprintf(buf, "  HAND:%s\n", joinInts(p.Hand))
	fmt.Fprintf(buf, "  STITCHES:%s\n", joinInts(p.Stitches))
}

// canonical renders every rule-relevant field in a fixed order. History timestamps and the
// result id are left out.
func (s *TableState) canonical() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "TABLE:%d|%s|%s|%t|%t|%t|%d|%t|%t\n",
		s.Round, s.GamePlayer, s.CurrentPlayer, s.GameStarted, s.GameEnded, s.SkatTaken,
		s.BidValueIndex, s.BidSaid, s.SpeedUpRequested)
	for _, p := range s.Players {
		writePlayer(&buf, "PLAYER", p)
	}
	if s.Inactive != nil {
		writePlayer(&buf, "INACTIVE", *s.Inactive)
	}
	fmt.Fprintf(&buf, "SKAT:%s\n", joinInts(s.Skat))
	fmt.Fprintf(&buf, "STITCH:%s|%s\n", joinInts(s.Stitch), strings.Join(s.StitchPlayers, ","))
	fmt.Fprintf(&buf, "LAST:%s\n", joinInts(s.LastStitch))
	fmt.Fprintf(&buf, "BIDS:%s\n", joinInts(s.BidValues))
	fmt.Fprintf(&buf, "MATADORS:%t|%d\n", s.Matadors.With, s.Matadors.Count)
	v := s.GameValue
	fmt.Fprintf(&buf, "VALUE:%d|%d|%d|%d|%t|%t|%t|%t\n",
		v.Score, v.Points, v.Multiplier, v.BaseValue, v.IsWinner, v.IsOverBid, v.Schneider, v.Schwarz)

	if s.Result != nil {
		for _, h := range s.Result.Histories {
			fmt.Fprintf(&buf, "HISTORY:%d|%s|%s|%d|%d|%d\n",
				h.Round, h.GamePlayer, h.Game, h.BidValue, h.GameValue.Score, len(h.Played))
		}
	}
	return buf.String()
}

// SerializeToBytes gob-encodes the state.
func (s *TableState) SerializeToBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeState decodes a state written by SerializeToBytes.
func DeserializeState(data []byte) (*TableState, error) {
	var s TableState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	return &s, nil
}
