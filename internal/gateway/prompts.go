package gateway

import (
	"fmt"
	"strings"

	"github.com/iWorld-y/post_analyzer/internal/taxonomy"
)

// promptSet 某个语言的四类提示词模板，%s 依次为标签列表和正文
type promptSet struct {
	classification string
	political      string
	intents        string
	veracity       string
}

const englishScoresShape = `Respond only with a JSON object in the following format:
{
    "scores": {
        "category1": 0.95,
        "category2": 0.03,
        "category3": 0.02
    }
}`

const germanScoresShape = `Antworte nur mit einem JSON-Objekt im folgenden Format:
{
    "scores": {
        "kategorie1": 0.95,
        "kategorie2": 0.03,
        "kategorie3": 0.02
    }
}`

var prompts = map[taxonomy.Language]promptSet{
	taxonomy.English: {
		classification: `Classify the following text into one of these categories: %s

Text: "%s"

Respond only with a JSON object in the following format:
{
    "primary_label": "chosen_category",
    "confidence": 0.95,
    "scores": {
        "category1": 0.95,
        "category2": 0.03,
        "category3": 0.02
    }
}`,
		political: `Analyze the political tendency of the following text: %s

Text: "%s"

` + englishScoresShape,
		intents: `Analyze the intents in the following text: %s

Text: "%s"

` + englishScoresShape,
		veracity: `You are a neutral, impartial fact-checker. Evaluate the following claim based on your knowledge.

Claim: "%s"

Respond only with a JSON object in the following format:
{
    "status": "Factually Correct|Untruth|Misleading|Unverifiable",
    "justification": "Brief justification",
    "verification_method": "AI-based analysis"
}`,
	},
	taxonomy.German: {
		classification: `Klassifiziere den folgenden Text in eine der Kategorien: %s

Text: "%s"

Antworte nur mit einem JSON-Objekt im folgenden Format:
{
    "primary_label": "gewählte_kategorie",
    "confidence": 0.95,
    "scores": {
        "kategorie1": 0.95,
        "kategorie2": 0.03,
        "kategorie3": 0.02
    }
}`,
		political: `Analysiere die politische Tendenz des folgenden Textes: %s

Text: "%s"

` + germanScoresShape,
		intents: `Analysiere die Absichten im folgenden Text: %s

Text: "%s"

` + germanScoresShape,
		veracity: `Du bist ein neutraler, unparteiischer deutscher Faktenchecker. Bewerte die folgende Behauptung basierend auf deinem Wissen.

Behauptung: "%s"

Antworte nur mit einem JSON-Objekt im folgenden Format:
{
    "status": "Factually Correct|Untruth|Misleading|Unverifiable",
    "justification": "Kurze Begründung",
    "verification_method": "AI-basierte Analyse"
}`,
	},
}

// 没有专门模板的语言使用英文提示词
func promptsFor(lang taxonomy.Language) promptSet {
	if p, ok := prompts[lang]; ok {
		return p
	}
	return prompts[taxonomy.English]
}

func buildClassificationPrompt(text string, labels []string, lang taxonomy.Language) string {
	return fmt.Sprintf(promptsFor(lang).classification, strings.Join(labels, ", "), text)
}

func buildPoliticalPrompt(text string, labels []string, lang taxonomy.Language) string {
	return fmt.Sprintf(promptsFor(lang).political, strings.Join(labels, ", "), text)
}

func buildIntentPrompt(text string, labels []string, lang taxonomy.Language) string {
	return fmt.Sprintf(promptsFor(lang).intents, strings.Join(labels, ", "), text)
}

func buildVeracityPrompt(claim string, lang taxonomy.Language) string {
	return fmt.Sprintf(promptsFor(lang).veracity, claim)
}
