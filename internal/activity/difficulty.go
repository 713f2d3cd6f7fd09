package activity

// Difficulty is the backend-owned difficulty scalar mirrored locally.
type Difficulty float64

const (
	MinDifficulty     Difficulty = 0.5
	MaxDifficulty     Difficulty = 3.0
	DefaultDifficulty Difficulty = 1.0
)

// Label thresholds. A difficulty below the threshold gets the label.
const (
	beginnerBelow Difficulty = 1.3
	easyBelow     Difficulty = 1.8
	mediumBelow   Difficulty = 2.3
	hardBelow     Difficulty = 2.8
)

// Clamp bounds d to [MinDifficulty, MaxDifficulty].
func (d Difficulty) Clamp() Difficulty {
	if d < MinDifficulty {
		return MinDifficulty
	}
	if d > MaxDifficulty {
		return MaxDifficulty
	}
	return d
}

// Label maps the scalar to Beginner/Easy/Medium/Hard/Expert.
func (d Difficulty) Label() string {
	switch {
	case d < beginnerBelow:
		return "Beginner"
	case d < easyBelow:
		return "Easy"
	case d < mediumBelow:
		return "Medium"
	case d < hardBelow:
		return "Hard"
	default:
		return "Expert"
	}
}

// Fraction returns the position of d within the bounded range as 0.0-1.0,
// used for progress bars.
func (d Difficulty) Fraction() float64 {
	c := d.Clamp()
	return float64(c-MinDifficulty) / float64(MaxDifficulty-MinDifficulty)
}
