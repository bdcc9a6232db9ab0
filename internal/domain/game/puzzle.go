package game

import "github.com/MRamiBalles/JailbreakIdle/internal/domain/strategy"

const (
	doorPries   = 5
	doorMarkMax = 0.98
	markerWidth = 0.02

	pinMin      = 1000
	pinMax      = 9999
	pinAttempts = 5
)

// DoorPuzzle is the timing puzzle guarding the jail door. A marker sweeps
// back and forth over [0, 0.98] and each pry must land it inside the
// target window.
type DoorPuzzle struct {
	Attempted bool    `json:"attempted"`
	Count     int     `json:"count"`
	Pos       float64 `json:"pos"`
	Marker    float64 `json:"marker"`
	Falling   bool    `json:"falling"`
}

// Width is the target window, shrinking with each successful pry.
func (d *DoorPuzzle) Width() float64 { return 0.25 - 0.04*float64(d.Count) }

// Arm opens the puzzle with a fresh target.
func (d *DoorPuzzle) Arm(rng strategy.Rand) {
	d.Attempted = true
	d.Pos = rng.Float64() * 0.75
	d.Marker = 0
	d.Falling = false
}

// Advance sweeps the marker. Its speed rises with every success.
func (d *DoorPuzzle) Advance(diff float64) {
	if !d.Attempted || diff <= 0 {
		return
	}
	step := diff / (5 - 0.75*float64(d.Count))
	if d.Falling {
		d.Marker = max(d.Marker-step, 0)
		if d.Marker == 0 {
			d.Falling = false
		}
		return
	}
	d.Marker = min(d.Marker+step, doorMarkMax)
	if d.Marker == doorMarkMax {
		d.Falling = true
	}
}

// Pry attempts one pry. A miss closes the puzzle and forfeits all progress.
func (d *DoorPuzzle) Pry(rng strategy.Rand) (hit, solved bool) {
	if !d.Attempted {
		return false, false
	}
	if d.Marker < d.Pos || d.Marker+markerWidth > d.Pos+d.Width() {
		d.Close()
		return false, false
	}
	d.Count++
	if d.Count >= doorPries {
		d.Close()
		return true, true
	}
	d.Marker = 0
	d.Pos = rng.Float64() * (1 - d.Width())
	return true, false
}

// Close abandons the puzzle.
func (d *DoorPuzzle) Close() {
	d.Attempted = false
	d.Count = 0
}

// PinPuzzle is the four-digit code guessing puzzle at the airport.
type PinPuzzle struct {
	Attempted bool  `json:"attempted"`
	Code      int   `json:"-"`
	Guesses   []int `json:"guesses"`
}

// Arm draws a new code and clears previous guesses.
func (p *PinPuzzle) Arm(rng strategy.Rand) {
	p.Attempted = true
	p.Code = pinMin + rng.Intn(pinMax-pinMin+1)
	p.Guesses = nil
}

// Guess submits a code. Out-of-range codes and guesses beyond the fifth are
// rejected. Running out of guesses closes the puzzle.
func (p *PinPuzzle) Guess(code int) (accepted, solved bool) {
	if !p.Attempted || code < pinMin || code > pinMax || len(p.Guesses) >= pinAttempts {
		return false, false
	}
	p.Guesses = append(p.Guesses, code)
	if code == p.Code {
		p.Attempted = false
		return true, true
	}
	if len(p.Guesses) >= pinAttempts {
		p.Attempted = false
	}
	return true, false
}

// Hint compares a guess digit by digit with the code: 1 when the guessed
// digit is higher, 0 when equal, -1 when lower.
func (p *PinPuzzle) Hint(guess int) [4]int {
	var out [4]int
	g, c := guess, p.Code
	for i := 3; i >= 0; i-- {
		gd, cd := g%10, c%10
		switch {
		case gd > cd:
			out[i] = 1
		case gd < cd:
			out[i] = -1
		}
		g /= 10
		c /= 10
	}
	return out
}

// Close abandons the puzzle.
func (p *PinPuzzle) Close() {
	p.Attempted = false
	p.Guesses = nil
}
