package router

import (
	"net/http"

	"buildmarket/internal/controller"
)

func NewRouter(c *controller.Controller) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/ping", c.Ping)

	mux.HandleFunc("POST /api/jobs/new", c.NewJob)
	mux.HandleFunc("GET /api/jobs/{jobId}", c.GetJob)
	mux.HandleFunc("PUT /api/jobs/{jobId}/status", c.SetJobStatus)
	mux.HandleFunc("GET /api/jobs/{jobId}/bids", c.JobBids)
	mux.HandleFunc("GET /api/jobs/{jobId}/bids/ranked", c.RankedBids)

	mux.HandleFunc("POST /api/contractors/new", c.NewContractor)
	mux.HandleFunc("GET /api/contractors/{contractorId}", c.GetContractor)
	mux.HandleFunc("GET /api/contractors/{contractorId}/reviews", c.ContractorReviews)
	mux.HandleFunc("POST /api/contractors/{contractorId}/reviews", c.NewReview)
	mux.HandleFunc("POST /api/contractors/{contractorId}/qualifications", c.NewQualification)

	mux.HandleFunc("POST /api/bids/new", c.NewBid)
	mux.HandleFunc("GET /api/bids/{bidId}", c.GetBid)
	mux.HandleFunc("DELETE /api/bids/{bidId}", c.WithdrawBid)
	mux.HandleFunc("PUT /api/bids/{bidId}/accept", c.AcceptBid)

	mux.HandleFunc("GET /api/works/{workId}", c.GetWork)
	mux.HandleFunc("POST /api/works/{workId}/milestones", c.NewMilestone)
	mux.HandleFunc("PUT /api/works/{workId}/milestones/{milestoneId}/status", c.SetMilestoneStatus)
	mux.HandleFunc("PUT /api/works/{workId}/milestones/{milestoneId}/payment", c.MilestonePayment)
	mux.HandleFunc("PUT /api/works/{workId}/status", c.SetWorkStatus)
	mux.HandleFunc("PUT /api/works/{workId}/reviewed", c.MarkWorkReviewed)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("page not found"))
	})

	cors := http.NewServeMux()
	cors.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Accept", "*/*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
		} else {
			mux.ServeHTTP(w, r)
		}
	})

	return cors
}
