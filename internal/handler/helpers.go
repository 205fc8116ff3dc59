package handler

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

func DecompressBody(body []byte) ([]byte, error) {
	gzipReader, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decompressedData, err := io.ReadAll(gzipReader)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress data: %w", err)
	}
	return decompressedData, nil
}

func ReadRequestBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	r.Body.Close()
	return body, nil
}

func HandleDecompression(r *http.Request) ([]byte, error) {
	body, err := ReadRequestBody(r)
	if err != nil {
		return nil, err
	}

	if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
		return DecompressBody(body)
	}
	return body, nil
}

func decodeBody(r *http.Request, target any) error {
	body, err := HandleDecompression(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}

// claimsUserID digs the numeric user id out of JWT claims. jwx hands numeric
// private claims back as float64 after a token roundtrip.
func claimsUserID(claims map[string]interface{}) (int64, bool) {
	switch value := claims["user_id"].(type) {
	case float64:
		return int64(value), true
	case int64:
		return value, true
	case json.Number:
		id, err := value.Int64()
		return id, err == nil
	default:
		return 0, false
	}
}

func claimsRole(claims map[string]interface{}) string {
	role, _ := claims["role"].(string)
	return role
}
