package configs

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yeisme/mediavault/pkg/rule"
)

// tagNamePattern 标签名同时出现在 URL、S3 桶名与缓存键中，只允许小写字母、数字、- 和 _.
var tagNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,62}$`)

func init() {
	_ = rule.RegisterValidation("tag_name", func(fl validator.FieldLevel) bool {
		return tagNamePattern.MatchString(fl.Field().String())
	})

	_ = rule.RegisterValidation("ratelimit_key", func(fl validator.FieldLevel) bool {
		key := strings.ToLower(strings.TrimSpace(fl.Field().String()))
		switch {
		case key == "global", key == "ip":
			return true
		case strings.HasPrefix(key, "header:"):
			return strings.TrimSpace(key[len("header:"):]) != ""
		default:
			return false
		}
	})
}
