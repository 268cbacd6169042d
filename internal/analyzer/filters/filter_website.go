package filters

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"pump_bundler/internal/common"
)

const maxURLLen = 500

type ImageURLFilter struct{}

func NewImageURLFilter() *ImageURLFilter {
	return &ImageURLFilter{}
}

func (f *ImageURLFilter) Name() string {
	return "imageUrl"
}
func (f *ImageURLFilter) Type() FilterType {
	return ImageURL
}

// Filter 图片地址可以为空；填写时必须是 http(s) 链接且不是前端的默认占位值
func (f *ImageURLFilter) Filter(token *common.TokenConfigReq) error {
	if token.ImageUrl == "" {
		return nil
	}
	if len(token.ImageUrl) > maxURLLen {
		return fmt.Errorf("图片地址不能超过 %d 个字符", maxURLLen)
	}
	u, err := url.Parse(token.ImageUrl)
	if err != nil {
		return errors.New("图片地址格式错误")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("图片地址必须使用 http 或 https")
	}

	host := strings.ToLower(u.Hostname())
	invalidHosts := []string{"", "undefined", "null"}
	for _, h := range invalidHosts {
		if host == h {
			return errors.New("图片地址缺少有效域名")
		}
	}
	return nil
}
