package utils

// MaxPage 页码上限，避免偏移量溢出
const MaxPage = 10000

// Pagination 分页请求参数
type Pagination struct {
	Page  int `json:"page" form:"page"`
	Limit int `json:"limit" form:"limit"`
}

// PageResult 分页响应结果
type PageResult struct {
	List  interface{} `json:"list"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// GetPageOffset 计算分页偏移量
func (p *Pagination) GetPageOffset() (int, int) {
	p.Normalize()
	return (p.Page - 1) * p.Limit, p.Limit
}

// Normalize 修正非法的分页参数
func (p *Pagination) Normalize() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit <= 0 {
		p.Limit = 10
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
}

// Offset 由 page/limit 计算偏移量，供 service 层使用
func Offset(page, limit int) (int, int) {
	p := Pagination{Page: page, Limit: limit}
	return p.GetPageOffset()
}
