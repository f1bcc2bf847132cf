package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// aliases covers spellings BCP 47 parsing does not map to the code WhisperX
// expects: English words, ISO 639-2/B codes, and Cantonese region tags that
// would otherwise collapse to "zh".
var aliases = map[string]string{
	"chinese":   "zh",
	"mandarin":  "zh",
	"chi":       "zh",
	"cmn":       "zh",
	"cantonese": "yue",
	"zh-hk":     "yue",
	"zh-mo":     "yue",
	"english":   "en",
	"japanese":  "ja",
	"korean":    "ko",
	"spanish":   "es",
	"french":    "fr",
	"fre":       "fr",
	"german":    "de",
	"ger":       "de",
	"russian":   "ru",
}

func normalize(code string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(code)), "_", "-")
}

// ToWhisper converts a language code, tag or English name to the code
// WhisperX accepts. Unknown two-letter input passes through; anything else
// yields "", which lets WhisperX auto-detect.
func ToWhisper(code string) string {
	code = normalize(code)
	if code == "" {
		return ""
	}
	if alias, ok := aliases[code]; ok {
		return alias
	}
	if tag, err := xlanguage.Parse(code); err == nil {
		if base, conf := tag.Base(); conf != xlanguage.No && base.String() != "und" {
			return base.String()
		}
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// DisplayName returns the English name for a language. Empty input is
// "Auto" and unrecognized input is echoed in upper case.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Auto"
	}
	if whisper := ToWhisper(code); whisper != "" {
		if tag, err := xlanguage.Parse(whisper); err == nil {
			if name := display.English.Languages().Name(tag); name != "" {
				return name
			}
		}
	}
	return strings.ToUpper(strings.TrimSpace(code))
}
