// Package rule 提供结构体和字段验证功能的封装，基于 go-playground/validator 实现.
// 校验规则写在 `rule` 标签中，错误字段名取自 mapstructure 标签，与配置文件中的键一致.
package rule

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	inst *validator.Validate
	once sync.Once
)

// initValidator 新建独立的 validator，避免修改 gin binding 使用的标签名.
func initValidator() {
	inst = validator.New(validator.WithRequiredStructEnabled())
	inst.SetTagName("rule")
	inst.RegisterTagNameFunc(fieldName)
}

// fieldName 优先使用 mapstructure 键，其次 json 键.
func fieldName(f reflect.StructField) string {
	for _, key := range []string{"mapstructure", "json"} {
		name, _, _ := strings.Cut(f.Tag.Get(key), ",")
		if name == "-" {
			return ""
		}

		if name != "" {
			return name
		}
	}

	return f.Name
}

// lazyInit 初始化全局 validator（幂等）.
func lazyInit() {
	once.Do(initValidator)
}

// Engine 返回全局 *validator.Validate，若未初始化则先初始化.
func Engine() *validator.Validate {
	lazyInit()

	return inst
}

// RegisterValidation 代理 RegisterValidation，确保已初始化.
func RegisterValidation(tag string, fn validator.Func, opts ...bool) error {
	lazyInit()

	return inst.RegisterValidation(tag, fn, opts...)
}

// ValidationErrors 是格式化后的验证错误字典，键为字段路径，值为可读错误信息.
type ValidationErrors map[string]string

// Error 以稳定顺序拼接全部错误.
func (e ValidationErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}

	return strings.Join(parts, "; ")
}

// Errors 把 validator 返回的错误转换为 ValidationErrors，非校验错误返回 nil.
func Errors(err error) ValidationErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(ValidationErrors, len(verrs))
	for _, fe := range verrs {
		out[trimRoot(fe.Namespace())] = describe(fe)
	}

	return out
}

// trimRoot 去掉命名空间中的根结构体名.
func trimRoot(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}

	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of [" + fe.Param() + "]"
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s=%s (got %v)", fe.Tag(), fe.Param(), fe.Value())
		}

		return fmt.Sprintf("failed %s (got %v)", fe.Tag(), fe.Value())
	}
}

// ValidateStruct 对结构体执行完整校验，校验失败时返回 ValidationErrors.
func ValidateStruct(s any) error {
	lazyInit()

	if err := inst.Struct(s); err != nil {
		if verrs := Errors(err); verrs != nil {
			return verrs
		}

		return err
	}

	return nil
}

// ValidateVar 按规则对单个变量校验，例如: ValidateVar(2048, "min=1").
func ValidateVar(field any, tag string) error {
	lazyInit()

	return inst.Var(field, tag)
}

// RegisterAlias 包装 RegisterAlias，便于注册别名规则.
func RegisterAlias(alias, rules string) {
	lazyInit()

	inst.RegisterAlias(alias, rules)
}
