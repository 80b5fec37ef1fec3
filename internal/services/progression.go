package services

import (
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/questboard-api/internal/models"
)

// DefaultLevels is the table every new company starts with.
func DefaultLevels() []models.LevelConfig {
	return []models.LevelConfig{
		{LevelNumber: 1, XPRequired: 0, RewardName: strPtr("Novice")},
		{LevelNumber: 2, XPRequired: 100, RewardName: strPtr("Contributor")},
		{LevelNumber: 3, XPRequired: 500, RewardName: strPtr("Expert")},
	}
}

// DeriveLevel returns the highest level number whose threshold is at most xp.
// levels must be sorted by level number ascending. With no qualifying entry
// the user is at level 1.
func DeriveLevel(xp int64, levels []models.LevelConfig) int {
	level := 1
	for _, l := range levels {
		if l.XPRequired <= xp && l.LevelNumber > level {
			level = l.LevelNumber
		}
	}
	return level
}

// LevelUp is a resolved level increase.
type LevelUp struct {
	From   int
	To     int
	Reward *string
}

// ResolveLevelUp reports a level-up when newLevel exceeds oldLevel, attaching
// the reward bound to newLevel if any.
func ResolveLevelUp(oldLevel, newLevel int, levels []models.LevelConfig) (LevelUp, bool) {
	if newLevel <= oldLevel {
		return LevelUp{}, false
	}
	up := LevelUp{From: oldLevel, To: newLevel}
	for _, l := range levels {
		if l.LevelNumber == newLevel {
			up.Reward = l.RewardName
			break
		}
	}
	return up, true
}

// LevelInput is one row of an admin-submitted level table.
type LevelInput struct {
	LevelNumber int     `json:"level_number" validate:"min=1,max=1000"`
	XPRequired  int64   `json:"xp_required" validate:"min=0"`
	RewardName  *string `json:"reward_name" validate:"omitempty,max=255"`
}

type levelTable struct {
	Levels []LevelInput `validate:"required,min=1,max=100,dive"`
}

var validate = validator.New()

// ValidateLevelTable checks a submitted table and returns it normalized:
// sorted by level number with blank reward names cleared.
func ValidateLevelTable(input []LevelInput) ([]models.LevelConfig, error) {
	if err := validate.Struct(levelTable{Levels: input}); err != nil {
		return nil, invalid(ErrInvalidLevelTable, "%s", describeValidation(err))
	}

	rows := make([]models.LevelConfig, len(input))
	seen := make(map[int]struct{}, len(input))
	for i, in := range input {
		if _, dup := seen[in.LevelNumber]; dup {
			return nil, invalid(ErrInvalidLevelTable, "level %d appears more than once", in.LevelNumber)
		}
		seen[in.LevelNumber] = struct{}{}

		var reward *string
		if in.RewardName != nil {
			if name := strings.TrimSpace(*in.RewardName); name != "" {
				reward = &name
			}
		}
		rows[i] = models.LevelConfig{LevelNumber: in.LevelNumber, XPRequired: in.XPRequired, RewardName: reward}
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].LevelNumber < rows[j].LevelNumber })
	for i := 1; i < len(rows); i++ {
		if rows[i].XPRequired < rows[i-1].XPRequired {
			return nil, invalid(ErrInvalidLevelTable, "level %d requires less XP than level %d",
				rows[i].LevelNumber, rows[i-1].LevelNumber)
		}
	}
	return rows, nil
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required", "min":
		if fe.Field() == "Levels" {
			return "at least one level is required"
		}
		return fe.Namespace() + " is below the minimum " + fe.Param()
	case "max":
		return fe.Namespace() + " exceeds the maximum " + fe.Param()
	default:
		return fe.Namespace() + " failed " + fe.Tag()
	}
}

func strPtr(s string) *string { return &s }
