package domain

type MenuCategory struct {
	ID           int64  `json:"category_id"`
	Name         string `json:"name"`
	DisplayOrder int    `json:"display_order"`
}

type MenuItem struct {
	ID          int64  `json:"item_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Category    string `json:"category,omitempty"`
	CategoryID  int64  `json:"category_id"`
	IsAvailable bool   `json:"is_available"`
	ImageURL    string `json:"image_url,omitempty"`
}
