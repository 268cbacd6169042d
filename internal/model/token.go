package model

import (
	"net/url"
	"strings"
)

const pumpIpfsProxy = "https://pump.fun/api/ipfs"

// TokenDescriptor 待发行代币的描述信息，构建 bundle 后不可修改
type TokenDescriptor struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	URI         string `json:"uri"`
}

// NewTokenDescriptor 由名称、符号、描述和图片地址生成描述信息。
// 图片为 http(s) 链接时通过 pump.fun 的 ipfs 代理组装元数据 URI，否则原样作为 URI。
func NewTokenDescriptor(name, symbol, description, imageUrl string) *TokenDescriptor {
	return &TokenDescriptor{
		Name:        name,
		Symbol:      symbol,
		Description: description,
		URI:         MetadataURI(name, symbol, description, imageUrl),
	}
}

func MetadataURI(name, symbol, description, imageUrl string) string {
	if !strings.HasPrefix(imageUrl, "http") {
		return imageUrl
	}
	q := url.Values{}
	q.Set("name", name)
	q.Set("symbol", symbol)
	q.Set("description", description)
	q.Set("image", imageUrl)
	return pumpIpfsProxy + "?" + q.Encode()
}
