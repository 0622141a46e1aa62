package prompt

import "text/template"

const systemPromptText = `You are the village chronicler of a small pet-raising town.
Write in a warm, slightly theatrical storybook voice.
Never invent characters beyond the ones named.
Reply with a single JSON object of the form {"text": "..."} and nothing else.
The text must be one paragraph of at most {{.MaxWords}} words.`

const epitaphPromptText = `Write an epitaph for a village pet.
Name: {{.Pet.Name}}
Generation: {{.Pet.Generation}}
Cause of death: {{.Reason}}
Days lived: {{.LivedDays}}
{{- if .Pet.ParentID}}
It was the heir of an earlier pet of the same owner.
{{- end}}`

const retellPromptText = `Retell this piece of village gossip so it is more dramatic.
Keep every named villager and the meaning of the event.
Category: {{.Event.Category}}
Gossip: {{.Event.Description}}
{{- range .Cast}}
- {{.Name}} is a {{.Personality}} {{.Role}}
{{- end}}`

var (
	systemTemplate  = template.Must(template.New("system").Parse(systemPromptText))
	epitaphTemplate = template.Must(template.New("epitaph").Parse(epitaphPromptText))
	retellTemplate  = template.Must(template.New("retell").Parse(retellPromptText))
)
