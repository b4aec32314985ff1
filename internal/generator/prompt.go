// Package generator builds the prompts sent to the content generator.
package generator

import (
	"strings"
)

// Section identifies one part of a generated report.
type Section string

const (
	SectionInsights Section = "insights"
	SectionForecast Section = "forecast"
	SectionCampaign Section = "campaign"
)

var instructions = map[Section]string{
	SectionInsights: "Generate ideas for marketing promotions that will help increase the restaurant's profit.",
	SectionForecast: "Forecast sales for the next two weeks based on these records and name the items likely to grow or decline.",
	SectionCampaign: "Draft a short promotional campaign plan for the coming month: channels, offers, and timing.",
}

// Prompt embeds the sales table into the instruction for section s.
func Prompt(s Section, rows [][]string) string {
	var b strings.Builder
	b.WriteString("Here is the sales data:\n")
	for _, row := range rows {
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(instructions[s])
	return b.String()
}
