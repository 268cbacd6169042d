package filters

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"

	"pump_bundler/internal/common"
)

var (
	namePattern   = regexp.MustCompile(`^[a-zA-Z0-9\s\-_\.]+$`)
	symbolPattern = regexp.MustCompile(`^[A-Z0-9]+$`)
)

type NameFilter struct{}

func NewNameFilter() *NameFilter {
	return &NameFilter{}
}

func (f *NameFilter) Name() string {
	return "name"
}
func (f *NameFilter) Type() FilterType {
	return TokenName
}

// Filter 名称只允许字母、数字、空格和 -_.
func (f *NameFilter) Filter(token *common.TokenConfigReq) error {
	n := utf8.RuneCountInString(token.Name)
	if n == 0 {
		return errors.New("代币名称不能为空")
	}
	if n > common.MAX_NAME_LEN {
		return fmt.Errorf("代币名称不能超过 %d 个字符", common.MAX_NAME_LEN)
	}
	if !namePattern.MatchString(token.Name) {
		return errors.New("代币名称包含非法字符")
	}
	return nil
}

type SymbolFilter struct{}

func NewSymbolFilter() *SymbolFilter {
	return &SymbolFilter{}
}

func (f *SymbolFilter) Name() string {
	return "symbol"
}
func (f *SymbolFilter) Type() FilterType {
	return TokenSymbol
}

// Filter 符号需要先转成大写
func (f *SymbolFilter) Filter(token *common.TokenConfigReq) error {
	n := len(token.Symbol)
	if n == 0 {
		return errors.New("代币符号不能为空")
	}
	if n > common.MAX_SYMBOL_LEN {
		return fmt.Errorf("代币符号不能超过 %d 个字符", common.MAX_SYMBOL_LEN)
	}
	if !symbolPattern.MatchString(token.Symbol) {
		return errors.New("代币符号只能包含字母和数字")
	}
	return nil
}
