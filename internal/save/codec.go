// Package save encodes and decodes the persisted game state. An encoded save
// is base64 of the state's JSON; decoding validates the structure, backfills
// missing keys from a fresh default state and never touches live state.
package save

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/MRamiBalles/JailbreakIdle/internal/domain/catalog"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/game"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/strategy"
)

// ErrInvalidSave wraps every decoding and validation failure.
var ErrInvalidSave = errors.New("invalid save")

// Encode serializes the persisted part of s.
func Encode(s *game.State) (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decode parses an encoded save into a fresh state. now is used for keys
// that are absent from the blob.
func Decode(encoded string, now int64) (*game.State, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrInvalidSave, err)
	}
	return DecodeJSON(raw, now)
}

// DecodeJSON parses a raw JSON save.
func DecodeJSON(raw []byte, now int64) (*game.State, error) {
	var blob any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&blob); err != nil {
		return nil, fmt.Errorf("%w: json: %v", ErrInvalidSave, err)
	}
	if err := Validate(blob); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSave, err)
	}

	defaults, err := defaultTree(now)
	if err != nil {
		return nil, err
	}
	merged, err := json.Marshal(Backfill(blob, defaults))
	if err != nil {
		return nil, fmt.Errorf("%w: remarshal: %v", ErrInvalidSave, err)
	}

	s := game.NewState(now)
	if err := json.Unmarshal(merged, s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSave, err)
	}
	Normalize(s)
	return s, nil
}

func defaultTree(now int64) (any, error) {
	raw, err := json.Marshal(game.NewState(now))
	if err != nil {
		return nil, fmt.Errorf("marshal defaults: %w", err)
	}
	var tree any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("decode defaults: %w", err)
	}
	return tree, nil
}

// Backfill copies every key of def that is missing from dst, recursing into
// nested objects and arrays. Present values, including null, are kept.
func Backfill(dst, def any) any {
	switch d := def.(type) {
	case map[string]any:
		m, ok := dst.(map[string]any)
		if !ok {
			return dst
		}
		for k, v := range d {
			if cur, present := m[k]; !present {
				m[k] = v
			} else {
				m[k] = Backfill(cur, v)
			}
		}
		return m
	case []any:
		a, ok := dst.([]any)
		if !ok {
			return dst
		}
		for i, v := range d {
			if i >= len(a) {
				a = append(a, v)
			} else {
				a[i] = Backfill(a[i], v)
			}
		}
		return a
	}
	return dst
}

// Normalize restores invariants a well-formed but edited save may break:
// upgrade levels within their caps, unknown catalog ids dropped, one entry
// per lawyer tier and a legal strategy size.
func Normalize(s *game.State) {
	for id, lvl := range s.Upgrades {
		u, ok := catalog.GetUpgrade(id)
		if !ok {
			delete(s.Upgrades, id)
			continue
		}
		s.Upgrades[id] = min(max(lvl, 0), u.Max)
	}
	for id := range s.Auto.Upgrades {
		if _, ok := catalog.GetUpgrade(id); !ok {
			delete(s.Auto.Upgrades, id)
		}
	}
	for id := range s.Auto.Actions {
		if _, ok := catalog.GetAction(id); !ok {
			delete(s.Auto.Actions, id)
		}
	}

	tiers := len(catalog.LawyerTiers)
	if len(s.Lawyers) > tiers {
		s.Lawyers = s.Lawyers[:tiers]
	}
	for len(s.Lawyers) < tiers {
		s.Lawyers = append(s.Lawyers, game.Lawyer{})
	}

	hi := strategy.MinSize + s.Upgrades[catalog.UpgComplexity]
	s.StrategySize = min(max(s.StrategySize, strategy.MinSize), hi)
	if s.TotalNerf < 1 {
		s.TotalNerf = 1
	}
}
