package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 文件上传相关常量
const (
	MimeImage = "image/"
	MimePDF   = "application/pdf"
)

const MaxReceiptSize = 5 << 20

var (
	AllowedReceiptTypes      = []string{MimeImage, MimePDF}
	AllowedReceiptExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".pdf"}
)
