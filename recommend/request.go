// Package recommend 组装推理链路：种子画像 -> 候选召回 -> 特征矩阵 -> 过滤/打分/截断，
// 并提供目录浏览（搜索、按热度列表）与产物信息查询。
package recommend

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/rushteam/movierec/core"
)

// RecommendRequest 推荐请求。
// MovieIDs 必须恰好 5 个、互不相同且为正数；TopN 为 0 时取配置默认值；
// Candidates 为 nil 时自动召回，非 nil 时只在给定列表内打分。
type RecommendRequest struct {
	MovieIDs   []int64 `json:"movie_ids" validate:"len=5,unique,dive,gt=0"`
	TopN       int     `json:"top_n,omitempty" validate:"gte=0,lte=100"`
	Candidates []int64 `json:"candidates,omitempty" validate:"omitempty,dive,gt=0"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate 校验请求结构，失败返回 INVALID_INPUT
func (r *RecommendRequest) Validate() error {
	if r == nil {
		return invalidInput("request is nil")
	}
	err := getValidator().Struct(r)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return core.WrapDomainError(core.ModuleInference, core.ErrorCodeInvalidInput, "invalid request", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, translate(fe))
	}
	return invalidInput(strings.Join(msgs, "; "))
}

func translate(fe validator.FieldError) string {
	field := fieldName(fe)
	switch fe.Tag() {
	case "len":
		return fmt.Sprintf("%s must contain exactly %s ids", field, fe.Param())
	case "unique":
		return fmt.Sprintf("%s must be unique", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s, got %v", field, fe.Param(), fe.Value())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range (%s %s), got %v", field, fe.Tag(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// fieldName 把结构体字段名映射为 JSON 字段名，dive 报错保留下标
func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	idx := ""
	if i := strings.IndexByte(name, '['); i >= 0 {
		name, idx = name[:i], name[i:]
	}
	switch name {
	case "MovieIDs":
		name = "movie_ids"
	case "TopN":
		name = "top_n"
	case "Candidates":
		name = "candidates"
	}
	return name + idx
}

func invalidInput(msg string) error {
	return core.NewDomainError(core.ModuleInference, core.ErrorCodeInvalidInput, "recommend: "+msg)
}
