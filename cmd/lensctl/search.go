package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

func runSearch(apiURL, query, mediaType string, page, pageSize int, out io.Writer) error {
	if query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("media_type", mediaType)
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(pageSize))

	resp, err := http.Get(apiURL + "/api/search?" + params.Encode())
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}
	_, err = io.Copy(out, resp.Body)
	return err
}

func runMedia(apiURL, id string, out io.Writer) error {
	resp, err := http.Get(apiURL + "/api/media/" + url.PathEscape(id))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}
	_, err = io.Copy(out, resp.Body)
	return err
}
