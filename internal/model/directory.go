package model

// DirectoryUser は外部ディレクトリAPIのユーザーを表す。
// 取得ごとのスナップショットであり、永続化しない。
type DirectoryUser struct {
	ID       int              `json:"id"`
	Name     string           `json:"name"`
	Username string           `json:"username"`
	Email    string           `json:"email"`
	Phone    string           `json:"phone"`
	Website  string           `json:"website"`
	Company  DirectoryCompany `json:"company"`
	Address  DirectoryAddress `json:"address"`
}

// DirectoryCompany はディレクトリユーザーの所属会社。
type DirectoryCompany struct {
	Name string `json:"name"`
}

// DirectoryAddress はディレクトリユーザーの住所。
type DirectoryAddress struct {
	Street  string `json:"street"`
	Suite   string `json:"suite"`
	City    string `json:"city"`
	Zipcode string `json:"zipcode"`
}

// Album はディレクトリユーザーが所有するアルバム。
// UserIDがDirectoryUser.IDと一致する場合のみ、そのユーザーの所有となる。
type Album struct {
	ID     int    `json:"id"`
	UserID int    `json:"userId"`
	Title  string `json:"title"`
}

// Photo はアルバムに属する写真。
// 所有者はAlbumIDを経由して推移的に決まる。
type Photo struct {
	ID           int    `json:"id"`
	AlbumID      int    `json:"albumId"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// PhotoGroup はアルバム単位にまとめた写真の集合。
type PhotoGroup struct {
	AlbumID    int
	AlbumTitle string
	Photos     []Photo
}

// GetTitle は検索フィルタ用にタイトルを返す。
func (a Album) GetTitle() string { return a.Title }

// GetTitle は検索フィルタ用にタイトルを返す。
func (p Photo) GetTitle() string { return p.Title }
