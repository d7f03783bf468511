package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/browserwing/nopo/locator"
	"github.com/browserwing/nopo/models"
	"github.com/browserwing/nopo/pkg/logger"
	"github.com/browserwing/nopo/services/player"
	"github.com/browserwing/nopo/storage"
)

type Handler struct {
	db      *storage.BoltDB
	browser Browser
	player  *player.Player
}

func NewHandler(db *storage.BoltDB, b Browser, p *player.Player) *Handler {
	return &Handler{
		db:      db,
		browser: b,
		player:  p,
	}
}

// ============= 定位器 =============

type locatorUnit struct {
	models.LocatorSpec
	XPath string `json:"xpath"`
}

// TranslateLocators 把定位链转换为 XPath
func (h *Handler) TranslateLocators(c *gin.Context) {
	var req struct {
		Locators []models.LocatorSpec `json:"locators" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "error.invalidParams", "detail": err.Error()})
		return
	}

	units := make([]locator.Locator, 0, len(req.Locators))
	out := make([]locatorUnit, 0, len(req.Locators))
	for _, spec := range req.Locators {
		l, err := spec.Locator()
		if err == nil {
			var xp string
			if xp, err = locator.Translate(l); err == nil {
				units = append(units, l)
				out = append(out, locatorUnit{LocatorSpec: spec, XPath: xp})
				continue
			}
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "error.invalidLocator", "detail": err.Error()})
		return
	}

	xp, err := locator.NewChain(units...).Path()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "error.invalidLocator", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"xpath": xp, "units": out})
}

// ============= 浏览器控制相关 API =============

// StartBrowser 启动浏览器
func (h *Handler) StartBrowser(c *gin.Context) {
	if h.browser.IsRunning() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "error.browserAlreadyRunning"})
		return
	}

	if err := h.browser.Start(c.Request.Context()); err != nil {
		logger.Error(c.Request.Context(), "Failed to start browser: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error.startBrowserFailed", "detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "success.browserStarted",
		"status":  h.browser.Status(),
	})
}

// StopBrowser 停止浏览器
func (h *Handler) StopBrowser(c *gin.Context) {
	if !h.browser.IsRunning() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "error.browserNotRunning"})
		return
	}

	if err := h.browser.Stop(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error.stopBrowserFailed", "detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "success.browserStopped"})
}

// BrowserStatus 浏览器状态
func (h *Handler) BrowserStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.browser.Status())
}

// OpenBrowserPage 打开页面，page_id 存在时使用页面定义中的 URL
func (h *Handler) OpenBrowserPage(c *gin.Context) {
	var req struct {
		URL    string `json:"url"`
		PageID string `json:"page_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "error.invalidParams"})
		return
	}

	if req.URL == "" && req.PageID != "" {
		page, ok := h.loadPage(c, req.PageID)
		if !ok {
			return
		}
		req.URL = page.URL
	}
	if req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "error.urlRequired"})
		return
	}
	if !h.browser.IsRunning() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "error.browserNotRunning"})
		return
	}

	if _, err := h.browser.Open(c.Request.Context(), req.URL); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error.openPageFailed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "success.pageOpened", "url": req.URL})
}

// ============= 页面定义 =============

func (h *Handler) loadPage(c *gin.Context, id string) (*models.PageDefinition, bool) {
	page, err := h.db.GetPage(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "error.pageNotFound"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "error.loadPageFailed", "detail": err.Error()})
		}
		return nil, false
	}
	return page, true
}

// CreatePage 创建页面定义
func (h *Handler) CreatePage(c *gin.Context) {
	var page models.PageDefinition
	if err := c.ShouldBindJSON(&page); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "error.invalidParams", "detail": err.Error()})
		return
	}
	if err := page.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "error.invalidPage", "detail": err.Error()})
		return
	}

	page.ID = uuid.New().String()
	page.CreatedAt = time.Now()
	page.UpdatedAt = page.CreatedAt

	if err := h.db.SavePage(&page); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error.savePageFailed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "success.pageSaved", "page": page})
}

// ListPages 列出页面定义（支持分页和标签过滤）
func (h *Handler) ListPages(c *gin.Context) {
	page := queryInt(c, "page", 1, 1, 0)
	pageSize := queryInt(c, "page_size", 20, 1, 100)
	tag := c.Query("tag")

	pages, err := h.db.ListPages()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error.listPagesFailed", "detail": err.Error()})
		return
	}

	filtered := make([]*models.PageDefinition, 0, len(pages))
	for _, p := range pages {
		if tag != "" && !hasTag(p.Tags, tag) {
			continue
		}
		filtered = append(filtered, p)
	}

	total := len(filtered)
	start := (page - 1) * pageSize
	if start >= total {
		filtered = []*models.PageDefinition{}
	} else {
		filtered = filtered[start:min(start+pageSize, total)]
	}

	c.JSON(http.StatusOK, gin.H{
		"pages":     filtered,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetPage 获取页面定义
func (h *Handler) GetPage(c *gin.Context) {
	page, ok := h.loadPage(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, page)
}

// UpdatePage 整体替换页面定义
func (h *Handler) UpdatePage(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.loadPage(c, id); !ok {
		return
	}

	var page models.PageDefinition
	if err := c.ShouldBindJSON(&page); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "error.invalidParams", "detail": err.Error()})
		return
	}
	if err := page.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "error.invalidPage", "detail": err.Error()})
		return
	}
	page.ID = id

	if err := h.db.UpdatePage(&page); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error.updatePageFailed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "success.pageUpdated", "page": page})
}

// DeletePage 删除页面定义及执行记录
func (h *Handler) DeletePage(c *gin.Context) {
	if err := h.db.DeletePage(c.Param("id")); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "error.pageNotFound"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error.deletePageFailed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "success.pageDeleted"})
}

// ============= 探测和执行 =============

// ProbePage 在活动会话上探测页面字段
func (h *Handler) ProbePage(c *gin.Context) {
	page, ok := h.loadPage(c, c.Param("id"))
	if !ok {
		return
	}
	s, err := h.browser.Session()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "error.noActiveSession", "detail": err.Error()})
		return
	}

	probes, err := h.player.Probe(c.Request.Context(), page, s)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error.probeFailed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": page.Name, "fields": probes})
}

// RunPage 执行步骤脚本。请求未给出步骤时使用页面定义中的默认步骤，
// params 替换 ${name} 占位符
func (h *Handler) RunPage(c *gin.Context) {
	page, ok := h.loadPage(c, c.Param("id"))
	if !ok {
		return
	}

	var req struct {
		Steps  []models.Step     `json:"steps"`
		Params map[string]string `json:"params"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "error.invalidParams", "detail": err.Error()})
			return
		}
	}

	steps := req.Steps
	if len(steps) == 0 {
		steps = page.Steps
	}
	if len(steps) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "error.noSteps"})
		return
	}
	steps = withParams(steps, req.Params)
	if url, ok := req.Params["url"]; ok && url != "" {
		page = page.Copy()
		page.URL = url
	}

	s, err := h.browser.Session()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "error.noActiveSession", "detail": err.Error()})
		return
	}

	run := h.player.Run(c.Request.Context(), page, s, steps)
	if err := h.db.SaveRun(run); err != nil {
		logger.Warn(c.Request.Context(), "Failed to save run %s: %v", run.ID, err)
	}

	status := http.StatusOK
	if !run.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"run": run})
}

// ListRuns 列出页面的执行记录
func (h *Handler) ListRuns(c *gin.Context) {
	runs, err := h.db.ListRuns(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error.listRunsFailed", "detail": err.Error()})
		return
	}
	if runs == nil {
		runs = []*models.Run{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "total": len(runs)})
}

// GetRun 获取执行记录
func (h *Handler) GetRun(c *gin.Context) {
	run, err := h.db.GetRun(c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "error.runNotFound"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error.loadRunFailed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, run)
}

// replacePlaceholders 替换 ${key}，未知占位符保留
func replacePlaceholders(text string, params map[string]string) string {
	if text == "" || !strings.Contains(text, "${") {
		return text
	}
	for key, value := range params {
		text = strings.ReplaceAll(text, "${"+key+"}", value)
	}
	return text
}

func withParams(steps []models.Step, params map[string]string) []models.Step {
	if len(params) == 0 {
		return steps
	}
	out := make([]models.Step, len(steps))
	for i, s := range steps {
		s.Value = replacePlaceholders(s.Value, params)
		s.URL = replacePlaceholders(s.URL, params)
		out[i] = s
	}
	return out
}

func queryInt(c *gin.Context, key string, def, lo, hi int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < lo || (hi > 0 && v > hi) {
		return def
	}
	return v
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
