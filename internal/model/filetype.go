package model

import (
	"path/filepath"
	"strings"
)

// File type categories derived from the filename extension.
const (
	TypeImage    = "image"
	TypeDocument = "document"
	TypeVideo    = "video"
	TypeAudio    = "audio"
	TypeOther    = "other"
)

// FileTypes lists every valid category, for filter validation.
var FileTypes = []string{TypeImage, TypeDocument, TypeVideo, TypeAudio, TypeOther}

var extensionCategories = map[string]string{
	// image
	"jpg": TypeImage, "jpeg": TypeImage, "png": TypeImage, "gif": TypeImage,
	"bmp": TypeImage, "svg": TypeImage, "webp": TypeImage, "heic": TypeImage,
	// document
	"pdf": TypeDocument, "doc": TypeDocument, "docx": TypeDocument,
	"txt": TypeDocument, "md": TypeDocument, "rtf": TypeDocument,
	"xls": TypeDocument, "xlsx": TypeDocument, "csv": TypeDocument,
	"ppt": TypeDocument, "pptx": TypeDocument, "odt": TypeDocument,
	"html": TypeDocument, "htm": TypeDocument, "json": TypeDocument,
	// video
	"mp4": TypeVideo, "avi": TypeVideo, "mov": TypeVideo, "mkv": TypeVideo,
	"webm": TypeVideo, "flv": TypeVideo, "wmv": TypeVideo, "m4v": TypeVideo,
	// audio
	"mp3": TypeAudio, "wav": TypeAudio, "ogg": TypeAudio, "flac": TypeAudio,
	"aac": TypeAudio, "m4a": TypeAudio, "wma": TypeAudio,
}

// DetectFileType maps a filename to its category and lowercase extension
// (without the dot). Unknown or missing extensions map to "other".
func DetectFileType(filename string) (fileType, extension string) {
	extension = strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if extension == "" {
		return TypeOther, ""
	}
	if t, ok := extensionCategories[extension]; ok {
		return t, extension
	}
	return TypeOther, extension
}

// IsValidFileType reports whether t is one of the known categories.
func IsValidFileType(t string) bool {
	for _, v := range FileTypes {
		if v == t {
			return true
		}
	}
	return false
}
