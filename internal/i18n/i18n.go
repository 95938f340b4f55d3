package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	LocaleEnUS = "en-US"
	LocaleZhCN = "zh-CN"

	// DefaultLocale 未识别语言时的回退
	DefaultLocale = LocaleEnUS
)

var catalogs = map[string]map[string]string{
	LocaleEnUS: enUS,
	LocaleZhCN: zhCN,
}

// T 翻译消息键；缺失时回退默认语言，再缺失返回键本身
func T(locale, key string) string {
	if msg, ok := catalogs[NormalizeLocale(locale)][key]; ok {
		return msg
	}
	if msg, ok := catalogs[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译后格式化
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

// NormalizeLocale 将 zh / zh_CN / zh-Hans 等归一为支持的语言
func NormalizeLocale(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case value == "":
		return DefaultLocale
	case strings.HasPrefix(value, "zh"):
		return LocaleZhCN
	case strings.HasPrefix(value, "en"):
		return LocaleEnUS
	default:
		return DefaultLocale
	}
}

// ResolveLocale 按 ?lang、X-Locale、Accept-Language 的顺序解析请求语言
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return NormalizeLocale(lang)
	}
	if header := strings.TrimSpace(c.GetHeader("X-Locale")); header != "" {
		return NormalizeLocale(header)
	}
	accept := c.GetHeader("Accept-Language")
	if accept == "" {
		return DefaultLocale
	}
	first := strings.Split(accept, ",")[0]
	first = strings.TrimSpace(strings.Split(first, ";")[0])
	return NormalizeLocale(first)
}
