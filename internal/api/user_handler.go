package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	clamd "github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"gorm.io/gorm"

	"github.com/jkc-mycode/spa-recruit-3-layered/internal/api/middleware"
	"github.com/jkc-mycode/spa-recruit-3-layered/internal/database"
)

// ObjectStorage 抽象对象存储，便于测试时替换 MinIO 客户端。
type ObjectStorage interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// UserHandler 处理个人信息查询与头像上传。
type UserHandler struct {
	db        *gorm.DB
	storage   ObjectStorage
	clamdAddr string
	maxBytes  int64
}

// NewUserHandler 构造 UserHandler。clamdAddr 为空时跳过病毒扫描。
func NewUserHandler(db *gorm.DB, storageClient ObjectStorage, clamdAddr string, maxBytes int64) *UserHandler {
	return &UserHandler{
		db:        db,
		storage:   storageClient,
		clamdAddr: clamdAddr,
		maxBytes:  maxBytes,
	}
}

type userResponse struct {
	UserID       uint      `json:"userId"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Age          int       `json:"age"`
	Gender       string    `json:"gender"`
	Role         string    `json:"role"`
	ProfileImage string    `json:"profileImage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// GetMe 返回当前登录用户的信息（不含密码哈希）。
func (h *UserHandler) GetMe(c *gin.Context) {
	user, ok := currentUserFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	OK(c, http.StatusOK, MsgProfileFetched, gin.H{"user": newUserResponse(user)})
}

var profileImageMIMEWhitelist = []string{"image/png", "image/jpeg"}

// UploadProfileImage 接收 multipart 头像文件，扫描后存入对象存储。
func (h *UserHandler) UploadProfileImage(c *gin.Context) {
	user, ok := currentUserFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	logger := middleware.LoggerFromContext(c).With(slog.Uint64("user_id", uint64(user.ID)))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required")
		return
	}
	if h.maxBytes > 0 && fileHeader.Size > h.maxBytes {
		BadRequest(c, "file too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		Internal(c, MsgInternalError)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		Internal(c, MsgInternalError)
		return
	}
	if h.maxBytes > 0 && int64(len(content)) > h.maxBytes {
		BadRequest(c, "file too large")
		return
	}

	contentType := http.DetectContentType(content)
	if !mimeAllowed(contentType) {
		BadRequest(c, "unsupported file type")
		return
	}

	if h.clamdAddr != "" {
		if err := scanWithClamd(h.clamdAddr, content); err != nil {
			logger.Warn("profile image rejected by virus scan", slog.Any("error", err))
			BadRequest(c, "file rejected by virus scan")
			return
		}
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext == "" {
		ext = ".png"
	}
	objectName := fmt.Sprintf("profile-images/%d/%s%s", user.ID, uuid.NewString(), ext)

	ctx := c.Request.Context()
	if _, err := h.storage.UploadFile(ctx, objectName, bytes.NewReader(content), int64(len(content)), contentType); err != nil {
		logger.Error("upload profile image failed", slog.Any("error", err))
		Internal(c, MsgInternalError)
		return
	}

	previous := user.ProfileImage
	if err := h.db.WithContext(ctx).Model(&database.User{}).
		Where("id = ?", user.ID).
		Update("profile_image", objectName).Error; err != nil {
		logger.Error("save profile image key failed", slog.Any("error", err))
		Internal(c, MsgInternalError)
		return
	}

	// 旧头像尽力清理，失败不影响本次上传。
	if previous != "" && strings.HasPrefix(previous, "profile-images/") {
		if err := h.storage.DeleteObject(ctx, previous); err != nil {
			logger.Warn("delete previous profile image failed", slog.Any("error", err))
		}
	}

	OK(c, http.StatusCreated, MsgProfileFetched, gin.H{"profileImage": objectName})
}

// GetProfileImageLink 生成当前用户头像的预签名链接。
func (h *UserHandler) GetProfileImageLink(c *gin.Context) {
	user, ok := currentUserFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	if user.ProfileImage == "" {
		NotFound(c, "profile image not set")
		return
	}

	signedURL, err := h.storage.GeneratePresignedURL(c.Request.Context(), user.ProfileImage, 15*time.Minute)
	if err != nil {
		Internal(c, MsgInternalError)
		return
	}

	OK(c, http.StatusOK, MsgProfileFetched, gin.H{"url": signedURL})
}

func mimeAllowed(contentType string) bool {
	for _, allowed := range profileImageMIMEWhitelist {
		if strings.HasPrefix(contentType, allowed) {
			return true
		}
	}
	return false
}

func scanWithClamd(addr string, content []byte) error {
	scanner := clamd.NewClamd(addr)
	results, err := scanner.ScanStream(bytes.NewReader(content), make(chan bool))
	if err != nil {
		return fmt.Errorf("clamd scan stream: %w", err)
	}
	for result := range results {
		if result.Status != clamd.RES_OK {
			return fmt.Errorf("clamd verdict %s: %s", result.Status, result.Description)
		}
	}
	return nil
}

func newUserResponse(user database.User) userResponse {
	return userResponse{
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Age:          user.Age,
		Gender:       user.Gender,
		Role:         user.Role,
		ProfileImage: user.ProfileImage,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}
