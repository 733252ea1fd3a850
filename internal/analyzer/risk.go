package analyzer

import (
	"github.com/khanglvm/promptwatch/internal/detect"
	"github.com/khanglvm/promptwatch/internal/model"
)

var (
	criticalTypes = []string{detect.CategoryAPIKey, detect.CategoryPassword, detect.CategorySSN}
	highTypes     = []string{detect.CategoryFinancialData, detect.CategoryCustomerData, detect.CategoryCreditCard}
)

// CalculateRisk maps a detected tool and sensitive categories to a risk
// level. Without an AI tool the risk is always low. Critical categories are
// checked before high ones.
func CalculateRisk(aiTool string, sensitiveTypes []string) model.RiskLevel {
	if aiTool == "" {
		return model.RiskLow
	}
	if containsAny(sensitiveTypes, criticalTypes) {
		return model.RiskCritical
	}
	if containsAny(sensitiveTypes, highTypes) {
		return model.RiskHigh
	}
	if len(sensitiveTypes) > 0 {
		return model.RiskMedium
	}
	return model.RiskLow
}

func containsAny(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}
