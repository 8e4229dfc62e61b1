package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleSuggestion_AsRule(t *testing.T) {
	t.Run("defaults conditions op to and", func(t *testing.T) {
		s := RuleSuggestion{
			Stage:      RuleStagePre,
			Conditions: []ConditionOrAction{{Field: "payee", Op: "contains", Value: "MonthlyService"}},
			Actions:    []ConditionOrAction{{Field: "category", Op: "set", Value: "cat-1"}},
			Confidence: 9,
		}

		rule := s.AsRule()
		assert.Equal(t, ConditionsOpAnd, rule.ConditionsOp)
		assert.Equal(t, RuleStagePre, rule.Stage)
		assert.Equal(t, s.Conditions, rule.Conditions)
		assert.Equal(t, s.Actions, rule.Actions)
		assert.Empty(t, rule.ID)
	})

	t.Run("keeps explicit conditions op", func(t *testing.T) {
		s := RuleSuggestion{Stage: RuleStageDefault, ConditionsOp: ConditionsOpOr}
		assert.Equal(t, ConditionsOpOr, s.AsRule().ConditionsOp)
	})
}
