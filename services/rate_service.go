package services

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/charmap"
)

// ErrRateUnavailable возвращается, когда курс не удалось получить
var ErrRateUnavailable = errors.New("курс валюты недоступен")

// RateService получает курсы валют из XML-ленты центрального банка.
// Курсы кешируются на час, недоступность ленты не считается фатальной.
type RateService struct {
	feedURL string
	client  *http.Client

	mu        sync.RWMutex
	rates     map[string]float64
	fetchedAt time.Time
	ttl       time.Duration
}

// NewRateService создает новый экземпляр RateService
func NewRateService(feedURL string) *RateService {
	return &RateService{
		feedURL: feedURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		rates:   make(map[string]float64),
		ttl:     time.Hour,
	}
}

// GetRate возвращает курс валюты к рублю за единицу номинала
func (s *RateService) GetRate(charCode string) (float64, error) {
	charCode = strings.ToUpper(charCode)

	s.mu.RLock()
	fresh := time.Since(s.fetchedAt) < s.ttl && len(s.rates) > 0
	rate, ok := s.rates[charCode]
	s.mu.RUnlock()

	if fresh {
		if !ok {
			return 0, ErrRateUnavailable
		}
		return rate, nil
	}

	if err := s.refresh(); err != nil {
		// Отдаем устаревший курс, если он есть
		s.mu.RLock()
		rate, ok = s.rates[charCode]
		s.mu.RUnlock()
		if ok {
			return rate, nil
		}
		return 0, ErrRateUnavailable
	}

	s.mu.RLock()
	rate, ok = s.rates[charCode]
	s.mu.RUnlock()
	if !ok {
		return 0, ErrRateUnavailable
	}
	return rate, nil
}

// refresh загружает ленту и обновляет кеш курсов
func (s *RateService) refresh() error {
	resp, err := s.client.Get(s.feedURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ErrRateUnavailable
	}

	doc := etree.NewDocument()
	// Лента отдается в windows-1251
	doc.ReadSettings.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		if strings.EqualFold(charset, "windows-1251") {
			return charmap.Windows1251.NewDecoder().Reader(input), nil
		}
		return input, nil
	}
	if _, err := doc.ReadFrom(resp.Body); err != nil {
		return err
	}

	parsed, err := parseRatesDocument(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.rates = parsed
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	return nil
}

// parseRatesDocument разбирает документ формата XML_daily
func parseRatesDocument(doc *etree.Document) (map[string]float64, error) {
	root := doc.SelectElement("ValCurs")
	if root == nil {
		return nil, errors.New("неожиданный формат ленты курсов")
	}

	rates := make(map[string]float64)
	for _, valute := range root.SelectElements("Valute") {
		code := valute.SelectElement("CharCode")
		value := valute.SelectElement("Value")
		nominal := valute.SelectElement("Nominal")
		if code == nil || value == nil {
			continue
		}

		// Значения в ленте с запятой в качестве разделителя
		raw := strings.ReplaceAll(strings.TrimSpace(value.Text()), ",", ".")
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}

		nom := 1.0
		if nominal != nil {
			if n, err := strconv.ParseFloat(strings.TrimSpace(nominal.Text()), 64); err == nil && n > 0 {
				nom = n
			}
		}

		rates[strings.ToUpper(strings.TrimSpace(code.Text()))] = rate / nom
	}

	if len(rates) == 0 {
		return nil, errors.New("лента курсов пуста")
	}

	return rates, nil
}
