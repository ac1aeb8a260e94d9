package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/marcelomendoncasoares/image2csv/internal/extract"
)

// newConvertRequest builds a multipart conversion upload
func newConvertRequest(url string, fields map[string]string, files map[string]string) *http.Request {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write([]byte(content))
		Expect(err).NotTo(HaveOccurred())
	}
	for k, v := range fields {
		Expect(writer.WriteField(k, v)).To(Succeed())
	}
	Expect(writer.Close()).To(Succeed())

	req, err := http.NewRequest(http.MethodPost, url+"/api/convert", body)
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

var _ = Describe("Server", func() {
	var (
		db          *mockDB
		service     *Service
		server      *Server
		auth        BasicAuth
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		server = NewServerWithMux(service, auth, http.NewServeMux())
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	}

	BeforeEach(func() {
		db = newMockDB()
		storage, err := NewLocalStorage(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		service = NewServiceWithDeps(db, &mockScanner{}, storage, extract.Config{},
			&mockIDGenerator{id: "conv-1"},
			&mockTimeSource{now: time.Date(2024, 3, 15, 14, 5, 9, 0, time.UTC)})
		auth = BasicAuth{}
		setupServer()
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	Describe("handleListParsers", func() {
		It("should return every registered parser", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/parsers")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))

			var parsers []parserInfo
			Expect(json.NewDecoder(resp.Body).Decode(&parsers)).To(Succeed())
			Expect(parsers).To(HaveLen(2))
			Expect(parsers[0].Name).To(Equal("flash_benefits"))
			Expect(parsers[0].Description).NotTo(BeEmpty())
		})
	})

	Describe("handleConvert", func() {
		var (
			fields map[string]string
			files  map[string]string
			resp   *http.Response
			body   []byte
		)

		BeforeEach(func() {
			fields = map[string]string{"parser": "flash_benefits", "encoding": "utf-8"}
			files = map[string]string{"screen.png": flashScreen}
		})

		JustBeforeEach(func() {
			var err error
			resp, err = http.DefaultClient.Do(newConvertRequest(ghttpServer.URL(), fields, files))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			body, err = io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
		})

		When("the screenshots parse", func() {
			It("should return the table as an attachment", func() {
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(resp.Header.Get("Content-Type")).To(Equal("text/csv"))
				Expect(resp.Header.Get("Content-Disposition")).To(Equal(`attachment; filename="flash_benefits_20240315_140509.csv"`))
				Expect(string(body)).To(Equal(
					`"description","date","value","hour"` + "\n" +
						`"Mercado Central","15/03/2024","45.90","14:30"` + "\n"))
			})

			It("should expose the conversion id and warnings", func() {
				Expect(resp.Header.Get("X-Conversion-Id")).To(Equal("conv-1"))
				Expect(resp.Header.Get("X-Conversion-Warnings")).To(ContainSubstring("2024"))
			})

			It("should set CORS headers", func() {
				Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
			})
		})

		When("a separator is given", func() {
			BeforeEach(func() {
				fields["separator"] = ";"
			})

			It("should use it", func() {
				Expect(string(body)).To(HavePrefix(`"description";"date"`))
			})
		})

		When("the parser finds nothing", func() {
			BeforeEach(func() {
				fields["parser"] = "xp_card_notifications"
			})

			It("should return unprocessable entity", func() {
				Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))
				Expect(string(body)).To(ContainSubstring("no results after image conversion"))
			})
		})

		When("the parser is unknown", func() {
			BeforeEach(func() {
				fields["parser"] = "nubank"
			})

			It("should return bad request", func() {
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("no file is sent", func() {
			BeforeEach(func() {
				files = nil
			})

			It("should return bad request", func() {
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(string(body)).To(ContainSubstring("no files uploaded"))
			})
		})

		When("drop_duplicates is not a boolean", func() {
			BeforeEach(func() {
				fields["drop_duplicates"] = "maybe"
			})

			It("should return bad request", func() {
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("handleListConversions", func() {
		When("conversions exist", func() {
			BeforeEach(func() {
				db.conversions["a"] = &Conversion{ID: "a", Parser: "flash_benefits"}
			})

			It("should return them", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/conversions")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var conversions []*Conversion
				Expect(json.NewDecoder(resp.Body).Decode(&conversions)).To(Succeed())
				Expect(conversions).To(HaveLen(1))
			})
		})
	})

	Describe("handleGetConversion", func() {
		It("should return 404 for an unknown id", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/conversions/missing")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("preflight requests", func() {
		It("should answer without authentication", func() {
			auth = BasicAuth{Username: "user", Password: "pass"}
			setupServer()

			req, err := http.NewRequest(http.MethodOptions, ghttpServer.URL()+"/api/convert", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(resp.Header.Get("Access-Control-Allow-Methods")).To(ContainSubstring("POST"))
		})
	})

	Describe("authentication", func() {
		BeforeEach(func() {
			auth = BasicAuth{Username: "user", Password: "pass"}
			setupServer()
		})

		When("credentials are missing", func() {
			It("should return unauthorized", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/parsers")
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
				Expect(resp.Header.Get("WWW-Authenticate")).To(ContainSubstring("Basic"))
			})
		})

		When("credentials are wrong", func() {
			It("should return unauthorized", func() {
				req, err := http.NewRequest(http.MethodGet, ghttpServer.URL()+"/api/parsers", nil)
				Expect(err).NotTo(HaveOccurred())
				req.SetBasicAuth("user", "wrong")
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			})
		})

		When("credentials are right", func() {
			It("should return status OK", func() {
				req, err := http.NewRequest(http.MethodGet, ghttpServer.URL()+"/api/parsers", nil)
				Expect(err).NotTo(HaveOccurred())
				req.SetBasicAuth("user", "pass")
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
			})
		})

		It("should leave the health check open", func() {
			resp, err := http.Get(ghttpServer.URL() + "/healthz")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})
})

var _ = Describe("BoltDB", func() {
	var db *BoltDB

	BeforeEach(func() {
		var err error
		db, err = NewBoltDB(GinkgoT().TempDir() + "/history.db")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	It("lists conversions newest first", func() {
		base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
		Expect(db.SaveConversion(&Conversion{ID: "old", CreatedAt: base})).To(Succeed())
		Expect(db.SaveConversion(&Conversion{ID: "new", CreatedAt: base.Add(time.Hour)})).To(Succeed())

		conversions, err := db.ListConversions()
		Expect(err).NotTo(HaveOccurred())
		Expect(conversions).To(HaveLen(2))
		Expect(conversions[0].ID).To(Equal("new"))
		Expect(conversions[1].ID).To(Equal("old"))
	})

	It("gets a conversion by id", func() {
		Expect(db.SaveConversion(&Conversion{ID: "a", Parser: "flash_benefits", Records: 3})).To(Succeed())

		conversion, err := db.GetConversion("a")
		Expect(err).NotTo(HaveOccurred())
		Expect(conversion.Parser).To(Equal("flash_benefits"))
		Expect(conversion.Records).To(Equal(3))
	})

	It("reports unknown ids", func() {
		_, err := db.GetConversion("missing")
		Expect(err).To(MatchError(ErrConversionNotFound))
	})
})
