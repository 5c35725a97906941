// internal/agents/draft.go
package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/unclebandit/outreach-engine/internal/model"
)

// channelTemplate is the base copy for one channel. Placeholders are
// rendered with the target's business fields; unmatched placeholders fall
// back to a neutral phrase so a draft never ships with a literal "{company}".
type channelTemplate struct {
	subject string
	body    string
}

var defaultTemplates = map[string]channelTemplate{
	"email": {
		subject: "Quick idea for {company}",
		body: "Hi,\n\nI came across {company} and was impressed by the work happening in {industry}. " +
			"Given your focus as {role}, I think there's a concrete way we could help {company} move faster.\n\n" +
			"Would you be open to a short call next week?\n\nBest regards",
	},
	"sms": {
		body: "Hi! Saw what {company} is doing in {industry} - impressive. I have an idea worth 2 minutes of your time. Open to a quick chat?",
	},
	"linkedin": {
		body: "Hi - your work as {role} at {company} caught my attention. " +
			"We help teams in {industry} with exactly the challenges you're likely facing. Happy to share specifics if useful.",
	},
	"instagram": {
		body: "Love what {company} is building! We work with {industry} teams on similar problems - would be great to connect.",
	},
}

// DraftAgent renders one draft per channel from the persona-informed
// templates.
type DraftAgent struct {
	// Templates overrides the defaults per channel when set.
	Templates map[string]channelTemplate
}

// Draft implements workflow.DraftFunc.
func (a *DraftAgent) Draft(_ context.Context, channel string, st *model.PipelineState) (model.Draft, error) {
	tpl, ok := a.template(channel)
	if !ok {
		return model.Draft{}, fmt.Errorf("no template for channel %s", channel)
	}

	d := model.Draft{
		Channel: channel,
		Body:    render(tpl.body, st),
	}
	if tpl.subject != "" {
		d.Subject = render(tpl.subject, st)
	}

	// A shade of the persona: casual tone drops the stiff close.
	if st.Tone != nil && st.Tone.FormalityLevel == "casual" && channel == "email" {
		d.Body = strings.Replace(d.Body, "Best regards", "Cheers", 1)
	}
	return d, nil
}

func (a *DraftAgent) template(channel string) (channelTemplate, bool) {
	if a.Templates != nil {
		if tpl, ok := a.Templates[channel]; ok {
			return tpl, true
		}
	}
	tpl, ok := defaultTemplates[channel]
	return tpl, ok
}

func render(template string, st *model.PipelineState) string {
	out := template
	out = replace(out, "{company}", st.Company, "your company")
	out = replace(out, "{role}", st.Role, "a decision maker")
	out = replace(out, "{industry}", st.Industry, "your space")
	return out
}

func replace(template, placeholder, value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		value = fallback
	}
	return strings.ReplaceAll(template, placeholder, value)
}
