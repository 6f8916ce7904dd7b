package models

import "fmt"

type Summary struct {
	SignupCount           int     `json:"signupCount"`
	EventCount            int     `json:"eventCount"`
	ConversionRate        float64 `json:"conversionRate"`
	ConversionRateDisplay string  `json:"conversionRateDisplay"`
	Mock                  bool    `json:"mock"`
}

// Summarize computes the command-center figures. The conversion rate is
// signups per interaction and stays 0 when nothing has been tracked.
func Summarize(s AnalyticsSnapshot) Summary {
	summary := Summary{
		SignupCount: len(s.Waitlist),
		EventCount:  len(s.Events),
		Mock:        s.Mock,
	}

	summary.ConversionRate, summary.ConversionRateDisplay = ConversionRate(summary.SignupCount, summary.EventCount)

	return summary
}

func ConversionRate(signups, events int) (float64, string) {
	if events <= 0 {
		return 0, "0%"
	}

	rate := float64(signups) / float64(events) * 100
	return rate, fmt.Sprintf("%.1f%%", rate)
}
