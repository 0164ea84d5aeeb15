package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HelpHandler serves the static help-center content. Everything here
// is compiled in; there is no CMS behind it.
type HelpHandler struct {
	Log     *logrus.Logger
	started time.Time
}

func NewHelpHandler(log *logrus.Logger) *HelpHandler {
	return &HelpHandler{Log: log, started: time.Now()}
}

type faqItem struct {
	ID       int      `json:"id"`
	Category string   `json:"category"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Tags     []string `json:"tags"`
}

var faqItems = []faqItem{
	{
		ID:       1,
		Category: "getting_started",
		Question: "Làm thế nào để bắt đầu sử dụng nền tảng?",
		Answer:   "Kết nối ví MetaMask của bạn và đăng nhập. Tài khoản sẽ được tạo tự động trong lần đăng nhập đầu tiên.",
		Tags:     []string{"wallet", "login", "metamask"},
	},
	{
		ID:       2,
		Category: "finance",
		Question: "Quản lý tài chính hoạt động như thế nào?",
		Answer:   "Nhập giao dịch thu chi của bạn, hệ thống tự động phân loại và tổng hợp báo cáo theo ngày, tháng và danh mục.",
		Tags:     []string{"transactions", "categories"},
	},
	{
		ID:       3,
		Category: "finance",
		Question: "Giao dịch blockchain có gì khác giao dịch thường?",
		Answer:   "Giao dịch blockchain được băm và đánh dấu bất biến, không thể chỉnh sửa sau khi lưu.",
		Tags:     []string{"blockchain", "immutable"},
	},
	{
		ID:       4,
		Category: "blockchain",
		Question: "Phân tích ví hoạt động như thế nào?",
		Answer:   "Nhập địa chỉ ví Ethereum cần kiểm tra, hệ thống AI sẽ đánh giá rủi ro gian lận dựa trên lịch sử giao dịch on-chain.",
		Tags:     []string{"analysis", "fraud", "risk"},
	},
	{
		ID:       5,
		Category: "study",
		Question: "Trợ lý học tập AI hỗ trợ những môn nào?",
		Answer:   "Trợ lý hỗ trợ đa số các môn học phổ thông và đại học, trả lời bằng tiếng Việt hoặc tiếng Anh.",
		Tags:     []string{"ai", "chat", "subjects"},
	},
	{
		ID:       6,
		Category: "academic",
		Question: "Làm sao để đăng bán tài liệu học tập?",
		Answer:   "Tải tài liệu lên (PDF, DOCX, TXT, MD hoặc ảnh), hệ thống lưu trữ trên IPFS và bạn mint NFT để đăng bán trên marketplace.",
		Tags:     []string{"nft", "ipfs", "marketplace"},
	},
	{
		ID:       7,
		Category: "account",
		Question: "Tôi có thể xóa tài khoản không?",
		Answer:   "Có. Tài khoản sẽ được vô hiệu hóa; đăng nhập lại bằng cùng ví sẽ kích hoạt lại tài khoản.",
		Tags:     []string{"account", "delete"},
	},
	{
		ID:       8,
		Category: "account",
		Question: "Dữ liệu của tôi có an toàn không?",
		Answer:   "Dữ liệu gắn với ví của bạn và chỉ bạn truy cập được qua phiên đăng nhập đã ký. Không ai khác xem được giao dịch của bạn.",
		Tags:     []string{"privacy", "security"},
	},
}

// GetFAQ lists FAQ entries, optionally filtered by category or a
// search term matched against question, answer and tags.
func (h *HelpHandler) GetFAQ(c *gin.Context) {
	category := c.Query("category")
	search := strings.ToLower(c.Query("search"))
	if search == "" {
		search = strings.ToLower(c.Query("q"))
	}

	items := make([]faqItem, 0, len(faqItems))
	for _, item := range faqItems {
		if category != "" && item.Category != category {
			continue
		}
		if search != "" && !faqMatches(item, search) {
			continue
		}
		items = append(items, item)
	}

	util.OK(c, util.Response{
		"faqs":  items,
		"total": len(items),
	})
}

func faqMatches(item faqItem, search string) bool {
	if strings.Contains(strings.ToLower(item.Question), search) ||
		strings.Contains(strings.ToLower(item.Answer), search) {
		return true
	}
	for _, tag := range item.Tags {
		if strings.Contains(strings.ToLower(tag), search) {
			return true
		}
	}
	return false
}

// GetFAQItem returns one FAQ entry by ID.
func (h *HelpHandler) GetFAQItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		util.ValidationFailed(c, []util.FieldError{{Field: "id", Message: "Invalid FAQ ID"}})
		return
	}

	for _, item := range faqItems {
		if item.ID == int(id) {
			util.OK(c, util.Response{"faq": item})
			return
		}
	}
	util.Error(c, http.StatusNotFound, "FAQ item not found")
}

// GetSupport returns the support contact channels.
func (h *HelpHandler) GetSupport(c *gin.Context) {
	util.OK(c, util.Response{
		"support": util.Response{
			"email":    "support@studentaihub.vn",
			"telegram": "https://t.me/studentaihub",
			"discord":  "https://discord.gg/studentaihub",
			"hours":    "9:00 - 18:00 (GMT+7), thứ 2 đến thứ 6",
		},
	})
}

// GetStatus reports platform component status for the help page.
func (h *HelpHandler) GetStatus(c *gin.Context) {
	util.OK(c, util.Response{
		"status": util.Response{
			"platform":  "operational",
			"uptime":    time.Since(h.started).Round(time.Second).String(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"services": util.Response{
				"api":        "operational",
				"database":   "operational",
				"ai_chat":    "operational",
				"ipfs":       "operational",
				"blockchain": "operational",
			},
		},
	})
}

type contactReq struct {
	Name    string `json:"name" binding:"required,min=1,max=100"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject" binding:"required,min=1,max=200"`
	Message string `json:"message" binding:"required,min=10,max=5000"`
}

// SubmitContact accepts a support request. There is no ticketing
// backend; the request is logged for the operators to pick up.
func (h *HelpHandler) SubmitContact(c *gin.Context) {
	var req contactReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationFailed(c, bindingErrors(err))
		return
	}

	h.Log.WithFields(logrus.Fields{
		"name":    req.Name,
		"email":   req.Email,
		"subject": req.Subject,
	}).Info("contact request received")

	util.OKMessage(c, "Yêu cầu hỗ trợ đã được gửi. Chúng tôi sẽ phản hồi trong 24 giờ.", util.Response{
		"receivedAt": time.Now().UTC().Format(time.RFC3339),
	})
}

type guide struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	URL         string `json:"url"`
}

var guides = []guide{
	{1, "Kết nối ví và đăng nhập", "Hướng dẫn cài đặt MetaMask và đăng nhập lần đầu", "getting_started", "/guides/wallet-setup"},
	{2, "Quản lý thu chi hằng ngày", "Nhập giao dịch, xem báo cáo và phân tích chi tiêu", "finance", "/guides/finance-basics"},
	{3, "Lưu giao dịch lên blockchain", "Tạo bản ghi giao dịch bất biến", "finance", "/guides/blockchain-transactions"},
	{4, "Kiểm tra độ an toàn của ví", "Phân tích rủi ro gian lận của một địa chỉ ví", "blockchain", "/guides/wallet-analysis"},
	{5, "Học cùng trợ lý AI", "Đặt câu hỏi và quản lý hội thoại học tập", "study", "/guides/study-chat"},
	{6, "Đăng bán tài liệu dưới dạng NFT", "Tải tài liệu lên IPFS và mint NFT", "academic", "/guides/document-nft"},
}

// GetGuides lists the how-to guides, optionally by category.
func (h *HelpHandler) GetGuides(c *gin.Context) {
	category := c.Query("category")

	items := make([]guide, 0, len(guides))
	for _, g := range guides {
		if category != "" && g.Category != category {
			continue
		}
		items = append(items, g)
	}

	util.OK(c, util.Response{
		"guides": items,
		"total":  len(items),
	})
}
