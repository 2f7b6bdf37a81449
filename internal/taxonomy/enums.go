package taxonomy

// Language 帖子语言，取值由标签分类文件决定
type Language string

const (
	English Language = "en"
	German  Language = "de"
)

// PostType 帖子类型
type PostType string

const (
	FactualClaim   PostType = "Factual Claim"
	Opinion        PostType = "Opinion"
	Question       PostType = "Question"
	PersonalUpdate PostType = "Personal Update"
	Promotion      PostType = "Promotion"
)

// PoliticalTendency 政治倾向，对外输出沿用原服务的德语短名
type PoliticalTendency string

const (
	Left        PoliticalTendency = "Links"
	CenterLeft  PoliticalTendency = "Mitte-Links"
	Center      PoliticalTendency = "Mitte"
	CenterRight PoliticalTendency = "Mitte-Rechts"
	Right       PoliticalTendency = "Rechts"
	Neutral     PoliticalTendency = "Neutral"
)

// Intent 发帖意图
type Intent string

const (
	Informative  Intent = "Informative"
	Persuasive   Intent = "Persuasive"
	Satirical    Intent = "Satirical"
	Provocative  Intent = "Provocative"
	Commercial   Intent = "Commercial"
	Entertaining Intent = "Entertaining"
)

// VeracityStatus 事实核查结论
type VeracityStatus string

const (
	FactuallyCorrect VeracityStatus = "Factually Correct"
	Untruth          VeracityStatus = "Untruth"
	Misleading       VeracityStatus = "Misleading"
	Unverifiable     VeracityStatus = "Unverifiable"
)

var (
	postTypes    = []PostType{FactualClaim, Opinion, Question, PersonalUpdate, Promotion}
	tendencies   = []PoliticalTendency{Left, CenterLeft, Center, CenterRight, Right, Neutral}
	intents      = []Intent{Informative, Persuasive, Satirical, Provocative, Commercial, Entertaining}
	veracityList = []VeracityStatus{FactuallyCorrect, Untruth, Misleading, Unverifiable}
)

// ParsePostType 校验取值是否为已知的帖子类型
func ParsePostType(s string) (PostType, bool) {
	for _, v := range postTypes {
		if string(v) == s {
			return v, true
		}
	}
	return "", false
}

func ParsePoliticalTendency(s string) (PoliticalTendency, bool) {
	for _, v := range tendencies {
		if string(v) == s {
			return v, true
		}
	}
	return "", false
}

func ParseIntent(s string) (Intent, bool) {
	for _, v := range intents {
		if string(v) == s {
			return v, true
		}
	}
	return "", false
}

func ParseVeracityStatus(s string) (VeracityStatus, bool) {
	for _, v := range veracityList {
		if string(v) == s {
			return v, true
		}
	}
	return "", false
}
