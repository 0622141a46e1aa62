package drama

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/easeaico/pet-village/internal/types"
)

// Cast is the data a narrative template is rendered with.
type Cast struct {
	A     string
	B     string
	Rival string
}

var templateText = map[types.DramaCategory][]string{
	types.DramaRomanceStart: {
		"💕 {{.A}} was seen bringing flowers to {{.B}} at midnight!",
		"💕 {{.A}} carved '{{.B}} + {{.A}}' into the old oak tree!",
		"💕 {{.A}} asked the elder about marriage traditions while staring at {{.B}}!",
	},
	types.DramaRomanceConflict: {
		"💔 {{.A}} saw {{.B}} laughing with {{.Rival}} and stormed off!",
		"😡 {{.A}} threw {{.B}}'s gift into the well after seeing them with {{.Rival}}!",
		"🔥 {{.A}} and {{.Rival}} are fighting over {{.B}} in the town square!",
	},
	types.DramaBetrayal: {
		"🗡️ {{.A}} discovered {{.B}} has been stealing from their shop!",
		"😱 {{.A}} overheard {{.B}} spreading vicious rumors about them!",
		"💰 {{.B}} sabotaged {{.A}}'s work to win the village contract!",
	},
	types.DramaAlliance: {
		"🤝 {{.A}} and {{.B}} announced a business partnership!",
		"⚔️ {{.A}} defended {{.B}} from {{.Rival}}'s accusations!",
		"🏘️ {{.A}} and {{.B}} are building something secret together!",
	},
	types.DramaMystery: {
		"🌙 {{.A}} was seen sneaking into the forbidden forest...",
		"📜 A mysterious letter about {{.A}} appeared on {{.B}}'s door!",
		"👁️ {{.A}} knows something about {{.B}} that nobody else does...",
	},
	types.DramaScandal: {
		"🍺 {{.A}} got drunk and revealed {{.B}}'s biggest secret!",
		"😈 {{.A}} and {{.B}} were caught together by {{.Rival}}!",
		"🎭 The truth about {{.A}}'s past with {{.B}} just came out!",
	},
}

type narrative struct {
	tmpl      *template.Template
	usesRival bool
}

var templates = func() map[types.DramaCategory][]narrative {
	out := make(map[types.DramaCategory][]narrative, len(templateText))
	for category, texts := range templateText {
		for i, text := range texts {
			name := fmt.Sprintf("%s-%d", category, i)
			out[category] = append(out[category], narrative{
				tmpl:      template.Must(template.New(name).Option("missingkey=error").Parse(text)),
				usesRival: strings.Contains(text, "{{.Rival}}"),
			})
		}
	}
	return out
}()

func render(n narrative, cast Cast) (string, error) {
	var sb strings.Builder
	if err := n.tmpl.Execute(&sb, cast); err != nil {
		return "", fmt.Errorf("failed to render drama template: %w", err)
	}
	return sb.String(), nil
}
