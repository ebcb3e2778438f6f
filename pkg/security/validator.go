package security

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	nonDigitRegex = regexp.MustCompile(`[^\d]`)
	usernameRegex = regexp.MustCompile(`^[\p{L}\p{N}_.]+$`)
)

// Validator 验证器接口
type Validator interface {
	Validate(value string) error
	Sanitize(value string) string
}

// StringValidator 字符串验证器
type StringValidator struct {
	MinLength int
	MaxLength int
	Required  bool
	Pattern   *regexp.Regexp
}

// NewStringValidator 创建字符串验证器
func NewStringValidator(minLength, maxLength int, required bool) *StringValidator {
	return &StringValidator{
		MinLength: minLength,
		MaxLength: maxLength,
		Required:  required,
	}
}

// NewUsernameValidator 用户名: 3-30 个字母、数字、下划线或点
func NewUsernameValidator() *StringValidator {
	v := NewStringValidator(3, 30, true)
	v.Pattern = usernameRegex
	return v
}

// Validate 验证字符串
func (sv *StringValidator) Validate(str string) error {
	if str == "" {
		if sv.Required {
			return fmt.Errorf("value is required")
		}
		return nil
	}

	length := utf8.RuneCountInString(str)
	if length < sv.MinLength {
		return fmt.Errorf("value too short, minimum length is %d", sv.MinLength)
	}
	if sv.MaxLength > 0 && length > sv.MaxLength {
		return fmt.Errorf("value too long, maximum length is %d", sv.MaxLength)
	}
	if sv.Pattern != nil && !sv.Pattern.MatchString(str) {
		return fmt.Errorf("value does not match required pattern")
	}
	return nil
}

// Sanitize 移除控制字符并去掉首尾空白
func (sv *StringValidator) Sanitize(value string) string {
	value = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, value)
	return strings.TrimSpace(value)
}

// EmailValidator 邮箱验证器
type EmailValidator struct {
	Required bool
}

// NewEmailValidator 创建邮箱验证器
func NewEmailValidator(required bool) *EmailValidator {
	return &EmailValidator{Required: required}
}

// Validate 验证邮箱
func (ev *EmailValidator) Validate(str string) error {
	if str == "" {
		if ev.Required {
			return fmt.Errorf("email is required")
		}
		return nil
	}
	if !emailRegex.MatchString(str) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// Sanitize 清理邮箱
func (ev *EmailValidator) Sanitize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// PhoneValidator 手机号验证器
type PhoneValidator struct {
	Required bool
	Country  string // 国家代码，如 "CN", "US"；为空时按 E.164 校验
}

// NewPhoneValidator 创建手机号验证器
func NewPhoneValidator(required bool, country string) *PhoneValidator {
	return &PhoneValidator{
		Required: required,
		Country:  country,
	}
}

// Validate 验证手机号
func (pv *PhoneValidator) Validate(str string) error {
	if str == "" {
		if pv.Required {
			return fmt.Errorf("phone number is required")
		}
		return nil
	}

	digits := nonDigitRegex.ReplaceAllString(str, "")

	switch pv.Country {
	case "CN":
		// 中国手机号：11位，以1开头
		if len(digits) != 11 || digits[0] != '1' {
			return fmt.Errorf("invalid Chinese phone number")
		}
	case "US":
		if len(digits) != 10 {
			return fmt.Errorf("invalid US phone number")
		}
	default:
		if len(digits) < 10 || len(digits) > 15 {
			return fmt.Errorf("invalid phone number")
		}
	}
	return nil
}

// Sanitize 只保留数字，保留前导 "+"
func (pv *PhoneValidator) Sanitize(value string) string {
	value = strings.TrimSpace(value)
	digits := nonDigitRegex.ReplaceAllString(value, "")
	if strings.HasPrefix(value, "+") {
		return "+" + digits
	}
	return digits
}

// ValidationResult 验证结果
type ValidationResult struct {
	Valid  bool
	Errors map[string]string

	message string
}

// Error 合并所有字段错误，字段顺序与规则添加顺序一致
func (vr *ValidationResult) Error() string {
	return vr.message
}

// ValidatorSet 按字段组织的验证器集合
type ValidatorSet struct {
	rules []validationRule
}

type validationRule struct {
	field     string
	validator Validator
}

// NewValidatorSet 创建验证器集合
func NewValidatorSet() *ValidatorSet {
	return &ValidatorSet{}
}

// AddRule 添加验证规则
func (vs *ValidatorSet) AddRule(field string, validator Validator) *ValidatorSet {
	vs.rules = append(vs.rules, validationRule{field: field, validator: validator})
	return vs
}

// Validate 清理并验证 values 中的字段，返回清理后的值
func (vs *ValidatorSet) Validate(values map[string]string) (map[string]string, *ValidationResult) {
	result := &ValidationResult{Valid: true, Errors: make(map[string]string)}
	cleaned := make(map[string]string, len(values))
	var msgs []string

	for _, rule := range vs.rules {
		v := rule.validator.Sanitize(values[rule.field])
		cleaned[rule.field] = v
		if err := rule.validator.Validate(v); err != nil {
			result.Valid = false
			result.Errors[rule.field] = err.Error()
			msgs = append(msgs, rule.field+": "+err.Error())
		}
	}
	result.message = strings.Join(msgs, "; ")
	return cleaned, result
}
