package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ошибки работы с файлами
var (
	ErrFileTooLarge   = errors.New("файл превышает допустимый размер")
	ErrFileNotAllowed = errors.New("недопустимый тип файла")
	ErrFileNotFound   = errors.New("файл не найден")
)

// AttachmentService сохраняет вложения долгов на диске.
// Файлы лежат в <uploadDir>/<userID>/<debtID>/.
type AttachmentService struct {
	uploadDir   string
	maxSize     int64
	allowedExts map[string]bool
}

// NewAttachmentService создает новый экземпляр AttachmentService
func NewAttachmentService(uploadDir string, maxSize int64, allowedExts []string) *AttachmentService {
	exts := make(map[string]bool, len(allowedExts))
	for _, ext := range allowedExts {
		exts[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	return &AttachmentService{
		uploadDir:   uploadDir,
		maxSize:     maxSize,
		allowedExts: exts,
	}
}

// debtDir возвращает каталог вложений долга
func (s *AttachmentService) debtDir(userID, debtID uint) string {
	return filepath.Join(s.uploadDir, fmt.Sprintf("%d", userID), fmt.Sprintf("%d", debtID))
}

// sanitizeName убирает из имени файла путь и опасные символы
func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		case r >= 'а' && r <= 'я', r >= 'А' && r <= 'Я', r == 'ё', r == 'Ё':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}

// validateFile проверяет расширение и размер файла
func (s *AttachmentService) validateFile(header *multipart.FileHeader) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	if !s.allowedExts[ext] {
		return ErrFileNotAllowed
	}
	if header.Size > s.maxSize {
		return ErrFileTooLarge
	}
	return nil
}

// SaveFiles сохраняет вложения долга и возвращает имена сохраненных файлов.
// kind попадает в префикс имени: debt для долговых, payment для платежных.
func (s *AttachmentService) SaveFiles(userID, debtID uint, kind string, headers []*multipart.FileHeader) ([]string, error) {
	// Сначала проверяем все файлы, чтобы не сохранять частично
	for _, header := range headers {
		if err := s.validateFile(header); err != nil {
			return nil, fmt.Errorf("%w: %s", err, header.Filename)
		}
	}

	dir := s.debtDir(userID, debtID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.New("ошибка при создании каталога вложений")
	}

	var saved []string
	for _, header := range headers {
		name := fmt.Sprintf("%s_%d_%s_%s",
			kind,
			time.Now().Unix(),
			uuid.New().String()[:8],
			sanitizeName(header.Filename),
		)

		if err := s.saveOne(header, filepath.Join(dir, name)); err != nil {
			return nil, err
		}
		saved = append(saved, name)
	}

	return saved, nil
}

// saveOne копирует один загруженный файл на диск
func (s *AttachmentService) saveOne(header *multipart.FileHeader, dst string) error {
	src, err := header.Open()
	if err != nil {
		return errors.New("ошибка при открытии загруженного файла")
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.New("ошибка при сохранении файла")
	}
	defer out.Close()

	// Страховка от превышения размера уже в потоке
	if _, err := io.Copy(out, io.LimitReader(src, s.maxSize+1)); err != nil {
		os.Remove(dst)
		return errors.New("ошибка при записи файла")
	}

	return nil
}

// ResolveFile возвращает путь к вложению, если оно принадлежит долгу
func (s *AttachmentService) ResolveFile(userID, debtID uint, filename string) (string, error) {
	// Имя обязано быть плоским, без элементов пути
	if filename != filepath.Base(filename) || filename == "" || filename == "." {
		return "", ErrFileNotFound
	}

	path := filepath.Join(s.debtDir(userID, debtID), filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrFileNotFound
	}

	return path, nil
}

// RemoveDebtDir удаляет каталог вложений долга вместе с содержимым
func (s *AttachmentService) RemoveDebtDir(userID, debtID uint) error {
	dir := s.debtDir(userID, debtID)
	if err := os.RemoveAll(dir); err != nil {
		return errors.New("ошибка при удалении вложений")
	}
	return nil
}
