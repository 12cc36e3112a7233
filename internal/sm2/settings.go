package sm2

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// ErrInvalidSettings is returned when Settings fail validation.
var ErrInvalidSettings = errors.New("sm2: invalid settings")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Settings holds the algorithm parameters. They only ever change as a whole.
type Settings struct {
	GraduatingInterval int `json:"graduating_interval" koanf:"graduating_interval" validate:"gte=1"`
	SecondInterval     int `json:"second_interval" koanf:"second_interval" validate:"gte=1"`
	// EasyMultiplier scales the interval after a perfect (5) review. The
	// source application calls it "easyInterval" but applies it as a factor.
	EasyMultiplier   float64 `json:"easy_multiplier" koanf:"easy_multiplier" validate:"gt=0"`
	HardMultiplier   float64 `json:"hard_multiplier" koanf:"hard_multiplier" validate:"gt=0"`
	AgainMultiplier  float64 `json:"again_multiplier" koanf:"again_multiplier" validate:"gte=0,lte=1"`
	IntervalModifier float64 `json:"interval_modifier" koanf:"interval_modifier" validate:"gt=0"`
	MinInterval      int     `json:"min_interval" koanf:"min_interval" validate:"gte=1,ltefield=MaxInterval"`
	MaxInterval      int     `json:"max_interval" koanf:"max_interval" validate:"gte=1"`
	// ClampAfterMultiplier re-applies the interval bounds after the easy and
	// hard multipliers. Off by default, which lets an easy review exceed
	// MaxInterval.
	ClampAfterMultiplier bool `json:"clamp_after_multiplier" koanf:"clamp_after_multiplier"`
}

// DefaultSettings returns the stock parameters.
func DefaultSettings() Settings {
	return Settings{
		GraduatingInterval: 1,
		SecondInterval:     6,
		EasyMultiplier:     4,
		HardMultiplier:     0.5,
		AgainMultiplier:    0.2,
		IntervalModifier:   1.0,
		MinInterval:        1,
		MaxInterval:        365,
	}
}

// Validate checks every field against its bounds.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return errors.Wrap(ErrInvalidSettings, err.Error())
	}
	return nil
}
