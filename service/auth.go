package service

import "net/http"

// AuthConfig 认证配置
type AuthConfig struct {
	Type     string `yaml:"type"` // "basic", "bearer", "api_key"
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Token    string `yaml:"token"`
	APIKey   string `yaml:"api_key"`
}

// Apply 按认证类型为请求设置头部，nil 或未知类型不做处理
func (a *AuthConfig) Apply(req *http.Request) {
	if a == nil {
		return
	}
	switch a.Type {
	case "basic":
		req.SetBasicAuth(a.Username, a.Password)
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+a.Token)
	case "api_key":
		req.Header.Set("X-API-Key", a.APIKey)
	}
}
