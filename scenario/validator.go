package scenario

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrInvalidScenario is returned when a scenario cannot be executed as written.
	ErrInvalidScenario = errors.New("invalid scenario")

	// ErrMissingID is returned when a scenario has no identifier.
	ErrMissingID = errors.New("scenario_id is required")

	// ErrNoSteps is returned when a scenario has no steps.
	ErrNoSteps = errors.New("scenario has no steps")

	// ErrUnknownAction is returned for an action outside the supported set.
	ErrUnknownAction = errors.New("unknown action")

	// ErrInvalidLocator is returned when a locator is missing fields for its strategy.
	ErrInvalidLocator = errors.New("invalid locator")

	// ErrTooManySteps is returned when a scenario exceeds the step limit.
	ErrTooManySteps = errors.New("too many steps")
)

// Limits bounds the size of scenarios accepted for execution.
type Limits struct {
	MaxSteps     int
	MaxTimeoutMS int
}

// DefaultLimits returns the default validation limits.
func DefaultLimits() Limits {
	return Limits{
		MaxSteps:     200,
		MaxTimeoutMS: 120000,
	}
}

// Validate checks the scenario with DefaultLimits.
func (s Scenario) Validate() error {
	return s.ValidateWithLimits(DefaultLimits())
}

// ValidateWithLimits checks that every step is executable. All returned
// errors wrap ErrInvalidScenario.
func (s Scenario) ValidateWithLimits(limits Limits) error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidScenario, ErrMissingID)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidScenario, ErrNoSteps)
	}
	if limits.MaxSteps > 0 && len(s.Steps) > limits.MaxSteps {
		return fmt.Errorf("%w: %w: %d steps (max %d)", ErrInvalidScenario, ErrTooManySteps, len(s.Steps), limits.MaxSteps)
	}
	for i, st := range s.Steps {
		if err := st.validate(limits); err != nil {
			return fmt.Errorf("%w: step %d: %w", ErrInvalidScenario, i+1, err)
		}
	}
	return nil
}

func (st Step) validate(limits Limits) error {
	if !st.Action.IsValid() {
		return fmt.Errorf("%w %q", ErrUnknownAction, st.Action)
	}
	if st.TimeoutMS < 0 || limits.MaxTimeoutMS > 0 && st.TimeoutMS > limits.MaxTimeoutMS {
		return fmt.Errorf("timeout_ms must be between 0 and %d", limits.MaxTimeoutMS)
	}

	if st.Action.NeedsLocator() {
		if st.Locator == nil {
			return fmt.Errorf("%w: %s requires a locator", ErrInvalidLocator, st.Action)
		}
		if err := st.Locator.Validate(); err != nil {
			return err
		}
	}

	switch st.Action {
	case ActionNavigate:
		u, err := url.Parse(st.Value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("navigate requires an absolute URL in value, got %q", st.Value)
		}
	case ActionType:
		if st.Value == "" {
			return fmt.Errorf("type requires a value")
		}
	case ActionAssertText:
		if st.Expected == "" {
			return fmt.Errorf("assert-text requires expected text")
		}
	case ActionReadAttribute:
		if st.Attribute == "" {
			return fmt.Errorf("read-attribute requires an attribute")
		}
	case ActionAssertURL:
		if st.Expected == "" {
			return fmt.Errorf("assert-url requires an expected URL fragment")
		}
	case ActionWait:
		if st.TimeoutMS == 0 {
			return fmt.Errorf("wait requires timeout_ms")
		}
	case ActionAssertTablistChildren:
		if st.Locator != nil {
			if st.Locator.Strategy != StrategyCSS {
				return fmt.Errorf("%w: assert-tablist-children only accepts a css locator", ErrInvalidLocator)
			}
			if err := st.Locator.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Validate checks that the fields required by the strategy are present.
func (l Locator) Validate() error {
	switch l.Strategy {
	case StrategyRole:
		if l.Role == "" {
			return fmt.Errorf("%w: role strategy requires role", ErrInvalidLocator)
		}
	case StrategyText:
		if l.Text == "" {
			return fmt.Errorf("%w: text strategy requires text", ErrInvalidLocator)
		}
	case StrategyAttribute:
		if l.Attribute == "" {
			return fmt.Errorf("%w: attribute strategy requires attribute", ErrInvalidLocator)
		}
	case StrategyCSS:
		if l.Selector == "" {
			return fmt.Errorf("%w: css strategy requires selector", ErrInvalidLocator)
		}
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidLocator, l.Strategy)
	}
	return nil
}
