// Package i18n resolves the handful of boundary-facing error message
// templates this system emits (spec.md §6/§7) into the caller's locale.
// Unlike the teacher's GUI-facing i18n package this one does not load
// locale files from disk: the message set is small and fixed, so the
// tables live in code, keyed the same way.
package i18n

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
)

var messages = map[string]map[string]string{
	"zh": {
		"invalid_ip":            "无效的 IP 地址: %s",
		"serial_port_not_found": "串口不存在: %s",
		"client_not_found":      "未找到 ID 为 %d 的连接",
		"task_not_found":        "任务未找到: 客户端 ID %d, 地址 %d",
		"zero_interval":         "间隔时间不能为零",
		"invalid_client_id":     "无效的客户端ID: %s",
		"other":                 "其他错误: %s",
	},
	"en": {
		"invalid_ip":            "invalid IP address: %s",
		"serial_port_not_found": "serial port not found: %s",
		"client_not_found":      "no connection found for id %d",
		"task_not_found":        "task not found: client id %d, address %d",
		"zero_interval":         "interval must not be zero",
		"invalid_client_id":     "invalid client id: %s",
		"other":                 "error: %s",
	},
}

var currentLang = detectSystemLanguage()

// SetLanguage overrides the language used by T. Accepts any BCP-47-ish tag;
// anything that does not normalize to "zh" falls back to "en".
func SetLanguage(lang string) {
	currentLang = normalizeLanguageCode(lang)
}

// GetCurrentLanguage reports the language T currently renders in.
func GetCurrentLanguage() string {
	return currentLang
}

// T renders the message template for key in the current language, falling
// back to English, and finally to the bare key if it is unknown.
func T(key string, args ...interface{}) string {
	if tpl, ok := messages[currentLang][key]; ok {
		return fmt.Sprintf(tpl, args...)
	}
	if tpl, ok := messages["en"][key]; ok {
		return fmt.Sprintf(tpl, args...)
	}
	return key
}

func detectSystemLanguage() string {
	for _, env := range []string{"LANG", "LC_ALL", "LC_MESSAGES"} {
		if v := os.Getenv(env); v != "" {
			return normalizeLanguageCode(v)
		}
	}
	if tags, _, err := language.ParseAcceptLanguage(os.Getenv("ACCEPT_LANGUAGE")); err == nil && len(tags) > 0 {
		return normalizeLanguageCode(tags[0].String())
	}
	return "zh"
}

func normalizeLanguageCode(lang string) string {
	if idx := strings.Index(lang, "."); idx != -1 {
		lang = lang[:idx]
	}
	lang = strings.ToLower(strings.ReplaceAll(lang, "_", "-"))
	if strings.HasPrefix(lang, "zh") {
		return "zh"
	}
	return "en"
}
